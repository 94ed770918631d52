package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportRecord is one chat record inside an export document. An export is a
// JSON array of these.
type ExportRecord struct {
	SourceID string          `json:"conversation_id"`
	Channel  string          `json:"channel"`
	Messages []ExportMessage `json:"messages"`
}

// ExportMessage mirrors the export wire format. The sender indicator comes in
// two shapes across export versions: a boolean (true means the end user) or a
// role string ("user", "bot", "agent").
type ExportMessage struct {
	Sequence   int             `json:"seq"`
	Text       string          `json:"text"`
	Sender     json.RawMessage `json:"sender"`
	SenderName *string         `json:"sender_name"`
	Timestamp  string          `json:"timestamp"`
}

// ParseExport decodes a full export document. Any decode error is fatal for
// the document — partial ingestion of a malformed file is worse than none.
func ParseExport(r io.Reader) ([]ExportRecord, error) {
	var records []ExportRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	for i, rec := range records {
		if rec.SourceID == "" {
			return nil, fmt.Errorf("record %d: missing conversation_id", i)
		}
	}
	return records, nil
}

// RawMessages converts the record's wire messages to RawMessage values.
func (r ExportRecord) RawMessages() ([]RawMessage, error) {
	msgs := make([]RawMessage, 0, len(r.Messages))
	for i, em := range r.Messages {
		sender, err := decodeSender(em.Sender)
		if err != nil {
			return nil, fmt.Errorf("record %s message %d: %w", r.SourceID, i, err)
		}
		raw := RawMessage{
			SequenceNumber: em.Sequence,
			Text:           em.Text,
			Sender:         sender,
			Timestamp:      parseTimestamp(em.Timestamp),
		}
		if em.SenderName != nil {
			raw.SenderName = *em.SenderName
		}
		msgs = append(msgs, raw)
	}
	return msgs, nil
}

func decodeSender(raw json.RawMessage) (SenderFlag, error) {
	if len(raw) == 0 {
		return SenderOther, nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return SenderUser, nil
		}
		return SenderBot, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "user", "customer":
			return SenderUser, nil
		case "bot", "assistant":
			return SenderBot, nil
		default:
			// Agents and anything unrecognised; the segmenter decides what
			// "other" means from the surrounding mode.
			return SenderOther, nil
		}
	}

	return "", fmt.Errorf("unparseable sender indicator: %s", string(raw))
}

// parseTimestamp accepts the two formats seen in exports. A missing or
// unparseable value yields the zero time; the builder marks and logs the
// fallback when it matters.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
