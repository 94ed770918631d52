package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatsight/chatsight/internal/transcript"
)

// Message is a persisted message row.
type Message struct {
	ID                uuid.UUID
	ConversationID    uuid.UUID
	Content           string
	SenderRole        string
	Timestamp         time.Time
	SequenceNumber    int
	OriginalMessageID string
}

// MessageRow is a message draft re-keyed with its conversation surrogate id,
// ready for insertion.
type MessageRow struct {
	ConversationID uuid.UUID
	Draft          transcript.MessageDraft
}

// InsertMessages writes one chunk of messages with conflict-ignore semantics
// on original_message_id. A duplicate is always the same logical message
// (the key is deterministic), so absorbing it silently is correct. Returns
// the number of rows actually inserted.
func (s *Store) InsertMessages(ctx context.Context, rows []MessageRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
		INSERT INTO messages (id, conversation_id, content, sender_role, timestamp, sequence_number, original_message_id, created_at)
		VALUES `)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, now())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			uuid.New(), r.ConversationID, r.Draft.Content, string(r.Draft.SenderRole),
			r.Draft.Timestamp, r.Draft.SequenceNumber, r.Draft.OriginalMessageID)
	}
	sb.WriteString(` ON CONFLICT (original_message_id) DO NOTHING`)

	tag, err := s.pool.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert messages: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListMessages returns a conversation's messages in conversation order.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, content, sender_role, timestamp, sequence_number, original_message_id
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sequence_number`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.SenderRole, &m.Timestamp, &m.SequenceNumber, &m.OriginalMessageID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
