package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chatsight/chatsight/internal/transcript"
)

// Config holds the ingest run configuration. Chunk sizing lives on the
// Persister, which is constructed separately.
type Config struct {
	ExportPath string
	Channel    string // channel label when a record carries none
	DryRun     bool
	StatePath  string
}

// RunSummary is what an ingest run reports when it finishes. Partial
// persistence failures end up in the counts, never in an error.
type RunSummary struct {
	Records       int
	RecordsFailed int
	PersistReport
}

// Runner orchestrates one export file: parse, segment, build, persist, one
// record at a time. Only file-level input errors abort the run.
type Runner struct {
	cfg       Config
	persister *Persister
	builder   *transcript.Builder
	rules     []transcript.TriggerRule
	logger    *slog.Logger
}

func NewRunner(cfg Config, p *Persister, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		persister: p,
		builder:   transcript.NewBuilder(logger),
		rules:     transcript.DefaultRules,
		logger:    logger,
	}
}

// Run ingests the configured export file.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return summary, fmt.Errorf("load state: %w", err)
	}
	if state.IsProcessed(r.cfg.ExportPath) {
		r.logger.Info("export already processed, skipping", "path", r.cfg.ExportPath)
		return summary, nil
	}

	f, err := os.Open(r.cfg.ExportPath)
	if err != nil {
		return summary, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	records, err := transcript.ParseExport(f)
	if err != nil {
		return summary, fmt.Errorf("parse export %s: %w", r.cfg.ExportPath, err)
	}

	r.logger.Info("export parsed", "path", r.cfg.ExportPath, "records", len(records))

	for _, rec := range records {
		select {
		case <-ctx.Done():
			r.logger.Info("ingest interrupted, saving state")
			_ = state.Save()
			return summary, ctx.Err()
		default:
		}

		report, err := r.ingestRecord(ctx, rec)
		summary.Records++
		if err != nil {
			summary.RecordsFailed++
			state.AddError(fmt.Sprintf("record %s: %v", rec.SourceID, err))
			r.logger.Error("record ingest failed", "source_id", rec.SourceID, "error", err)
			continue
		}
		summary.PersistReport.add(report)

		state.RecordsProcessed++
		state.ConversationsUpserted += report.ConversationsUpserted
		state.MessagesInserted += report.MessagesInserted
	}

	// Only a clean, persisting run marks the file processed. A dry run wrote
	// nothing, and a run with failures or skips needs the file-level skip to
	// stay open so a re-run can retry; the idempotency keys absorb whatever
	// did land.
	clean := summary.RecordsFailed == 0 &&
		summary.ChunksFailed == 0 &&
		summary.MessagesFailed == 0 &&
		summary.MessagesSkipped == 0
	if !r.cfg.DryRun && clean {
		state.MarkProcessed(r.cfg.ExportPath)
	} else if !r.cfg.DryRun {
		r.logger.Warn("run had failures, leaving file eligible for re-run",
			"path", r.cfg.ExportPath,
			"records_failed", summary.RecordsFailed,
			"chunks_failed", summary.ChunksFailed,
			"messages_skipped", summary.MessagesSkipped,
		)
	}
	if err := state.Save(); err != nil {
		r.logger.Warn("failed to save ingest state", "error", err)
	}

	r.logger.Info("ingest complete",
		"path", r.cfg.ExportPath,
		"records", summary.Records,
		"records_failed", summary.RecordsFailed,
		"conversations", summary.ConversationsUpserted,
		"messages_inserted", summary.MessagesInserted,
		"messages_duplicate", summary.MessagesDuplicate,
		"messages_skipped", summary.MessagesSkipped,
		"messages_failed", summary.MessagesFailed,
		"dry_run", r.cfg.DryRun,
	)

	fmt.Printf("\n=== Ingest Summary ===\n")
	fmt.Printf("Records processed: %d (%d failed)\n", summary.Records, summary.RecordsFailed)
	fmt.Printf("Conversations upserted: %d\n", summary.ConversationsUpserted)
	fmt.Printf("Messages inserted: %d (%d duplicates absorbed)\n", summary.MessagesInserted, summary.MessagesDuplicate)
	fmt.Printf("Messages skipped: %d, failed: %d (%d chunks)\n", summary.MessagesSkipped, summary.MessagesFailed, summary.ChunksFailed)
	if r.cfg.DryRun {
		fmt.Printf("Mode: DRY RUN (no DB writes)\n")
	}

	return summary, nil
}

func (r *Runner) ingestRecord(ctx context.Context, rec transcript.ExportRecord) (PersistReport, error) {
	msgs, err := rec.RawMessages()
	if err != nil {
		return PersistReport{}, fmt.Errorf("map messages: %w", err)
	}

	seg := transcript.Segment(msgs, r.rules)

	channel := rec.Channel
	if channel == "" {
		channel = r.cfg.Channel
	}
	drafts := r.builder.Build(rec.SourceID, channel, seg)
	if len(drafts) == 0 {
		r.logger.Info("record produced no conversations", "source_id", rec.SourceID)
		return PersistReport{}, nil
	}

	r.logger.Info("record segmented",
		"source_id", rec.SourceID,
		"ai_messages", len(seg.AIMessages),
		"human_messages", len(seg.HumanMessages),
		"drafts", len(drafts),
	)

	if r.cfg.DryRun {
		return PersistReport{}, nil
	}
	return r.persister.Persist(ctx, drafts)
}
