package transcript

import "time"

// Mode identifies who was handling a stretch of a conversation.
type Mode string

const (
	ModeAI    Mode = "ai"
	ModeHuman Mode = "human"
)

// SenderFlag classifies who authored a raw export message.
type SenderFlag string

const (
	SenderUser  SenderFlag = "user"
	SenderBot   SenderFlag = "bot"
	SenderOther SenderFlag = "other"
)

// Role is the sender role stored on a persisted message.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleAgent Role = "agent"
)

// RawMessage is a single message as it appears in an export record.
// Conversation order is ascending SequenceNumber, never slice order —
// exports are not guaranteed to be pre-sorted.
type RawMessage struct {
	SequenceNumber int
	Text           string
	Sender         SenderFlag
	SenderName     string
	Timestamp      time.Time
}

// ConversationDraft is a conversation ready for persistence. Its SourceID is
// the composite {originalSourceID}-{mode}, so (SourceID, Mode) is unique even
// if two drafts from the same export record reach the store.
type ConversationDraft struct {
	SourceID          string
	Mode              Mode
	Channel           string
	StartedAt         time.Time
	StartedAtFallback bool // true when StartedAt was defaulted to now()
	MessageCount      int
	Messages          []MessageDraft
}

// MessageDraft is a message ready for persistence, minus the conversation
// surrogate id which is only known after the conversation upsert.
type MessageDraft struct {
	OriginalMessageID string
	Content           string
	SenderRole        Role
	Timestamp         time.Time
	SequenceNumber    int
}
