package store

import (
	"context"
	"fmt"
)

// Stats is the aggregate view served by the dashboard API.
type Stats struct {
	Conversations      int      `json:"conversations"`
	AIConversations    int      `json:"ai_conversations"`
	HumanConversations int      `json:"human_conversations"`
	Messages           int      `json:"messages"`
	Analyzed           int      `json:"analyzed"`
	AverageScore       *float64 `json:"average_score,omitempty"`
}

// Stats computes the aggregate counts in one round trip.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE mode = 'ai'),
			count(*) FILTER (WHERE mode = 'human'),
			(SELECT count(*) FROM messages),
			count(*) FILTER (WHERE analyzed_at IS NOT NULL),
			avg(score) FILTER (WHERE analyzed_at IS NOT NULL)
		FROM conversations`,
	).Scan(&st.Conversations, &st.AIConversations, &st.HumanConversations, &st.Messages, &st.Analyzed, &st.AverageScore)
	if err != nil {
		return Stats{}, fmt.Errorf("stats query: %w", err)
	}
	return st, nil
}
