package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chatsight/chatsight/internal/transcript"
)

// Conversation is a persisted conversation row. Analysis fields are nil until
// the analyzer has scored the row.
type Conversation struct {
	ID                uuid.UUID
	SourceID          string
	Mode              string
	Channel           string
	StartedAt         time.Time
	StartedAtFallback bool
	MessageCount      int
	Sentiment         *string
	Score             *float64
	Summary           *string
	AnalyzedAt        *time.Time
}

// ConversationKey is what an upsert hands back: enough to re-key pending
// message drafts onto their surrogate conversation id.
type ConversationKey struct {
	ID       uuid.UUID
	SourceID string
	Mode     string
}

// UpsertConversations writes all drafts in one statement keyed on
// (source_id, mode). Re-ingestion of the same export is a conflict, not an
// error: the row keeps its id and refreshes message_count and started_at.
// The returned keys cover every draft, inserted or pre-existing.
func (s *Store) UpsertConversations(ctx context.Context, drafts []transcript.ConversationDraft) ([]ConversationKey, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
		INSERT INTO conversations (id, source_id, mode, channel, started_at, started_at_fallback, message_count, created_at)
		VALUES `)
	for i, d := range drafts {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, now())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, uuid.New(), d.SourceID, string(d.Mode), d.Channel, d.StartedAt, d.StartedAtFallback, d.MessageCount)
	}
	sb.WriteString(`
		ON CONFLICT (source_id, mode) DO UPDATE SET
			message_count = EXCLUDED.message_count,
			started_at = EXCLUDED.started_at,
			started_at_fallback = EXCLUDED.started_at_fallback
		RETURNING id, source_id, mode`)

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("upsert conversations: %w", err)
	}
	defer rows.Close()

	var keys []ConversationKey
	for rows.Next() {
		var k ConversationKey
		if err := rows.Scan(&k.ID, &k.SourceID, &k.Mode); err != nil {
			return nil, fmt.Errorf("scan conversation key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("upsert conversations: %w", err)
	}
	return keys, nil
}

// ListUnanalyzed returns one page of conversations still lacking analysis.
func (s *Store) ListUnanalyzed(ctx context.Context, offset, limit int) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_id, mode, channel, started_at, started_at_fallback, message_count,
		       sentiment, score, summary, analyzed_at
		FROM conversations
		WHERE analyzed_at IS NULL
		ORDER BY started_at, id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

// ListConversations returns the most recent conversations, optionally
// filtered by mode.
func (s *Store) ListConversations(ctx context.Context, mode string, limit int) ([]Conversation, error) {
	query := `
		SELECT id, source_id, mode, channel, started_at, started_at_fallback, message_count,
		       sentiment, score, summary, analyzed_at
		FROM conversations`
	var args []any
	if mode != "" {
		query += ` WHERE mode = $1 ORDER BY started_at DESC LIMIT $2`
		args = []any{mode, limit}
	} else {
		query += ` ORDER BY started_at DESC LIMIT $1`
		args = []any{limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

// ConversationKeysPage returns one page of conversation keys ordered by
// source_id. Used to reconcile message drafts against conversations persisted
// by an earlier, partially failed run.
func (s *Store) ConversationKeysPage(ctx context.Context, offset, limit int) ([]ConversationKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_id, mode
		FROM conversations
		ORDER BY source_id, mode
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversation keys: %w", err)
	}
	defer rows.Close()

	var keys []ConversationKey
	for rows.Next() {
		var k ConversationKey
		if err := rows.Scan(&k.ID, &k.SourceID, &k.Mode); err != nil {
			return nil, fmt.Errorf("scan conversation key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// UpdateAnalysis writes the classifier verdict back onto a conversation row.
func (s *Store) UpdateAnalysis(ctx context.Context, id uuid.UUID, sentiment string, score float64, summary string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversations
		SET sentiment = $1, score = $2, summary = $3, analyzed_at = now()
		WHERE id = $4`,
		sentiment, score, summary, id,
	)
	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}
	return nil
}

func scanConversations(rows pgx.Rows) ([]Conversation, error) {
	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(
			&c.ID, &c.SourceID, &c.Mode, &c.Channel, &c.StartedAt, &c.StartedAtFallback,
			&c.MessageCount, &c.Sentiment, &c.Score, &c.Summary, &c.AnalyzedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
