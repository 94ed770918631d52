package store

import (
	"context"
	"fmt"
)

// DefaultPageSize is the page size used for full-table reads. The backend
// caps rows per request well below the volumes an ingestion run touches, so
// every "read everything" path goes through FetchAll.
const DefaultPageSize = 1000

// PageFunc returns the rows in [offset, offset+limit).
type PageFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// FetchAll drains a paged query. It advances the offset by the number of rows
// actually returned and stops on the first short page, or once hardCap rows
// have accumulated (hardCap <= 0 means unbounded), truncating the result to
// exactly hardCap.
func FetchAll[T any](ctx context.Context, pageSize, hardCap int, page PageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var out []T
	offset := 0
	for {
		rows, err := page(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		out = append(out, rows...)
		offset += len(rows)

		if hardCap > 0 && len(out) >= hardCap {
			return out[:hardCap], nil
		}
		if len(rows) < pageSize {
			return out, nil
		}
	}
}

// FetchAllConversationKeys reads every conversation key despite the
// per-request row cap.
func (s *Store) FetchAllConversationKeys(ctx context.Context) ([]ConversationKey, error) {
	return FetchAll(ctx, DefaultPageSize, 0, s.ConversationKeysPage)
}

// FetchAllUnanalyzed reads every conversation awaiting analysis, up to
// hardCap rows.
func (s *Store) FetchAllUnanalyzed(ctx context.Context, hardCap int) ([]Conversation, error) {
	return FetchAll(ctx, DefaultPageSize, hardCap, s.ListUnanalyzed)
}
