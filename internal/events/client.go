package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects chatsight publishes and consumes.
const (
	// SubjectExportStored announces that a new export file landed and should
	// be ingested.
	SubjectExportStored = "chatsight.export.stored"
	// SubjectIngestCompleted carries the summary of a finished ingest run.
	SubjectIngestCompleted = "chatsight.ingest.completed"
	// SubjectConversationAnalyzed is emitted once per scored conversation.
	SubjectConversationAnalyzed = "chatsight.conversation.analyzed"
)

// ExportStored is the payload on SubjectExportStored.
type ExportStored struct {
	Path    string `json:"path"`
	Channel string `json:"channel,omitempty"`
}

// IngestCompleted is the payload on SubjectIngestCompleted.
type IngestCompleted struct {
	Path                  string `json:"path"`
	Records               int    `json:"records"`
	RecordsFailed         int    `json:"records_failed"`
	ConversationsUpserted int    `json:"conversations_upserted"`
	MessagesInserted      int    `json:"messages_inserted"`
}

// ConversationAnalyzed is the payload on SubjectConversationAnalyzed.
type ConversationAnalyzed struct {
	ConversationID string  `json:"conversation_id"`
	SourceID       string  `json:"source_id"`
	Mode           string  `json:"mode"`
	Sentiment      string  `json:"sentiment"`
	Score          float64 `json:"score"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
