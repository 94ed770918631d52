package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatsight/chatsight/internal/cache"
	"github.com/chatsight/chatsight/internal/events"
	"github.com/chatsight/chatsight/internal/store"
)

const (
	defaultPoolSize = 10
	defaultPause    = 2 * time.Second
	// roundFetchCap bounds one RunOnce pass so a huge backlog drains in
	// successive passes instead of one giant in-memory slice.
	roundFetchCap = 5000
)

// Store is the slice of the store the analyzer needs.
type Store interface {
	FetchAllUnanalyzed(ctx context.Context, hardCap int) ([]store.Conversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]store.Message, error)
	UpdateAnalysis(ctx context.Context, id uuid.UUID, sentiment string, score float64, summary string) error
}

// Report counts one analysis pass.
type Report struct {
	Analyzed int
	Failed   int
}

// Analyzer scores persisted conversations that lack analysis. External calls
// run in rounds of at most poolSize concurrent requests with a fixed pause
// between rounds — plain client-side backpressure toward the model API, not
// a scheduler. Cancellation only stops new work from being submitted.
type Analyzer struct {
	store      Store
	classifier Classifier
	cache      *cache.Cache
	bus        *events.Client
	poolSize   int
	pause      time.Duration
	logger     *slog.Logger
}

func New(s Store, c Classifier, statsCache *cache.Cache, bus *events.Client, poolSize int, pause time.Duration, logger *slog.Logger) *Analyzer {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	if pause <= 0 {
		pause = defaultPause
	}
	return &Analyzer{
		store:      s,
		classifier: c,
		cache:      statsCache,
		bus:        bus,
		poolSize:   poolSize,
		pause:      pause,
		logger:     logger,
	}
}

// RunOnce fetches the unanalyzed backlog and scores it. Per-conversation
// failures are counted and logged, never raised.
func (a *Analyzer) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	convs, err := a.store.FetchAllUnanalyzed(ctx, roundFetchCap)
	if err != nil {
		return report, fmt.Errorf("fetch unanalyzed: %w", err)
	}
	if len(convs) == 0 {
		return report, nil
	}

	a.logger.Info("analysis pass starting", "conversations", len(convs), "pool", a.poolSize)

	var mu sync.Mutex
	for start := 0; start < len(convs); start += a.poolSize {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		end := start + a.poolSize
		if end > len(convs) {
			end = len(convs)
		}

		var wg sync.WaitGroup
		for _, conv := range convs[start:end] {
			wg.Add(1)
			go func(conv store.Conversation) {
				defer wg.Done()
				err := a.analyze(ctx, conv)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failed++
					a.logger.Error("analysis failed", "conversation_id", conv.ID, "error", err)
					return
				}
				report.Analyzed++
			}(conv)
		}
		wg.Wait()

		if end < len(convs) {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(a.pause):
			}
		}
	}

	if report.Analyzed > 0 && a.cache != nil {
		a.cache.InvalidateAll()
	}

	a.logger.Info("analysis pass complete", "analyzed", report.Analyzed, "failed", report.Failed)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, conv store.Conversation) error {
	msgs, err := a.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		// Nothing to score; mark the row so it leaves the backlog.
		if err := a.store.UpdateAnalysis(ctx, conv.ID, "neutral", 0, "empty conversation"); err != nil {
			return fmt.Errorf("mark empty: %w", err)
		}
		return nil
	}

	res, err := a.classifier.Classify(ctx, FormatTranscript(msgs))
	if err != nil {
		return err
	}

	if err := a.store.UpdateAnalysis(ctx, conv.ID, res.Sentiment, res.Score, res.Summary); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	if a.bus != nil {
		if err := a.bus.Publish(events.SubjectConversationAnalyzed, events.ConversationAnalyzed{
			ConversationID: conv.ID.String(),
			SourceID:       conv.SourceID,
			Mode:           conv.Mode,
			Sentiment:      res.Sentiment,
			Score:          res.Score,
		}); err != nil {
			a.logger.Warn("failed to publish analysis event", "conversation_id", conv.ID, "error", err)
		}
	}

	return nil
}
