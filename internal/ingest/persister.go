package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chatsight/chatsight/internal/store"
	"github.com/chatsight/chatsight/internal/transcript"
)

// defaultChunkSize keeps each message insert well under the backend's
// request-size limit.
const defaultChunkSize = 200

// ConversationStore is the slice of the store the persister needs.
type ConversationStore interface {
	UpsertConversations(ctx context.Context, drafts []transcript.ConversationDraft) ([]store.ConversationKey, error)
	InsertMessages(ctx context.Context, rows []store.MessageRow) (int64, error)
}

// PersistReport counts what one Persist call did. Duplicates absorbed by the
// idempotency keys are successes, not errors.
type PersistReport struct {
	ConversationsUpserted int
	MessagesInserted      int // rows actually written
	MessagesDuplicate     int // conflicts absorbed on original_message_id
	MessagesSkipped       int // drafts whose conversation id never resolved
	MessagesFailed        int // rows in chunks whose insert call failed
	ChunksFailed          int
}

func (r *PersistReport) add(other PersistReport) {
	r.ConversationsUpserted += other.ConversationsUpserted
	r.MessagesInserted += other.MessagesInserted
	r.MessagesDuplicate += other.MessagesDuplicate
	r.MessagesSkipped += other.MessagesSkipped
	r.MessagesFailed += other.MessagesFailed
	r.ChunksFailed += other.ChunksFailed
}

// Persister writes conversation drafts and their messages in two phases:
// a single conversation upsert keyed on (source_id, mode), then message
// inserts in fixed-size chunks with conflict-ignore on original_message_id.
// Chunk failures are logged and counted; the loop always continues, so a
// re-run of the same input retries only what has not already landed.
type Persister struct {
	store     ConversationStore
	chunkSize int
	logger    *slog.Logger
}

func NewPersister(s ConversationStore, chunkSize int, logger *slog.Logger) *Persister {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Persister{store: s, chunkSize: chunkSize, logger: logger}
}

// Persist writes one logical batch of drafts. The returned error is non-nil
// only when the conversation upsert itself fails — without surrogate ids no
// message can be written, so that failure is fatal for the batch.
func (p *Persister) Persist(ctx context.Context, drafts []transcript.ConversationDraft) (PersistReport, error) {
	var report PersistReport
	if len(drafts) == 0 {
		return report, nil
	}

	keys, err := p.store.UpsertConversations(ctx, drafts)
	if err != nil {
		return report, fmt.Errorf("conversation upsert: %w", err)
	}
	report.ConversationsUpserted = len(keys)

	// Re-key pending message drafts with the server-assigned conversation ids.
	byKey := make(map[string]uuid.UUID, len(keys))
	for _, k := range keys {
		byKey[fmt.Sprintf("%s-%s", k.SourceID, k.Mode)] = k.ID
	}

	var rows []store.MessageRow
	for _, d := range drafts {
		convID, ok := byKey[fmt.Sprintf("%s-%s", d.SourceID, d.Mode)]
		if !ok {
			report.MessagesSkipped += len(d.Messages)
			p.logger.Warn("conversation id did not resolve, skipping its messages",
				"source_id", d.SourceID,
				"mode", d.Mode,
				"messages", len(d.Messages),
			)
			continue
		}
		for _, m := range d.Messages {
			rows = append(rows, store.MessageRow{ConversationID: convID, Draft: m})
		}
	}

	for start := 0; start < len(rows); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		inserted, err := p.store.InsertMessages(ctx, chunk)
		if err != nil {
			report.ChunksFailed++
			report.MessagesFailed += len(chunk)
			p.logger.Error("message chunk insert failed",
				"offset", start,
				"size", len(chunk),
				"error", err,
			)
			continue
		}
		report.MessagesInserted += int(inserted)
		report.MessagesDuplicate += len(chunk) - int(inserted)
	}

	return report, nil
}
