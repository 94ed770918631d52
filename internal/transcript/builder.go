package transcript

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Builder turns segment partitions into conversation drafts with
// deterministic identities.
type Builder struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger, now: time.Now}
}

// Build emits up to two conversation drafts for one export record.
//
// The AI segment is kept only when it contains at least one user message —
// pure bot monologues and empty stretches left behind by a straight hand-off
// carry no analyzable signal. The human segment is kept whenever it is
// non-empty; an agent-only log (proactive follow-up) is a legitimate
// conversation.
func (b *Builder) Build(sourceID, channel string, seg SegmentResult) []ConversationDraft {
	var drafts []ConversationDraft

	if hasUserMessage(seg.AIMessages) {
		drafts = append(drafts, b.buildSegment(sourceID, channel, ModeAI, seg.AIMessages))
	}
	if len(seg.HumanMessages) > 0 {
		drafts = append(drafts, b.buildSegment(sourceID, channel, ModeHuman, seg.HumanMessages))
	}

	return drafts
}

func (b *Builder) buildSegment(sourceID, channel string, mode Mode, msgs []RawMessage) ConversationDraft {
	draft := ConversationDraft{
		SourceID: fmt.Sprintf("%s-%s", sourceID, mode),
		Mode:     mode,
		Channel:  channel,
	}

	for _, m := range msgs {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		draft.Messages = append(draft.Messages, MessageDraft{
			OriginalMessageID: fmt.Sprintf("%s-%s-%d", sourceID, mode, m.SequenceNumber),
			Content:           m.Text,
			SenderRole:        roleFor(mode, m.Sender),
			Timestamp:         m.Timestamp,
			SequenceNumber:    m.SequenceNumber,
		})
	}
	draft.MessageCount = len(draft.Messages)

	if len(msgs) > 0 && !msgs[0].Timestamp.IsZero() {
		draft.StartedAt = msgs[0].Timestamp
	} else {
		draft.StartedAt = b.now().UTC()
		draft.StartedAtFallback = true
		b.logger.Warn("segment has no usable first timestamp, defaulting started_at",
			"source_id", draft.SourceID,
			"mode", mode,
		)
	}

	return draft
}

// roleFor maps a sender flag to the persisted role. A non-user sender is the
// bot inside an AI segment and an agent inside a human one.
func roleFor(mode Mode, sender SenderFlag) Role {
	if sender == SenderUser {
		return RoleUser
	}
	if mode == ModeHuman {
		return RoleAgent
	}
	return RoleBot
}

func hasUserMessage(msgs []RawMessage) bool {
	for _, m := range msgs {
		if m.Sender == SenderUser {
			return true
		}
	}
	return false
}
