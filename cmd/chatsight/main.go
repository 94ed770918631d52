package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chatsight/chatsight/internal/analyzer"
	"github.com/chatsight/chatsight/internal/anthropic"
	"github.com/chatsight/chatsight/internal/api"
	"github.com/chatsight/chatsight/internal/cache"
	"github.com/chatsight/chatsight/internal/config"
	"github.com/chatsight/chatsight/internal/events"
	"github.com/chatsight/chatsight/internal/ingest"
	"github.com/chatsight/chatsight/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("chatsight starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// Event bus
	bus, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Stats cache, shared between the API reads and the writers that
	// invalidate it.
	statsCache := cache.New(time.Duration(cfg.StatsTTLSec) * time.Second)

	// Analyzer
	classifier := analyzer.NewLLMClassifier(llm, slog.Default())
	an := analyzer.New(
		db, classifier, statsCache, bus,
		cfg.AnalyzerPool,
		time.Duration(cfg.AnalyzerPauseSec)*time.Second,
		slog.Default(),
	)

	// Ingest pipeline, triggered by export.stored events.
	persister := ingest.NewPersister(db, cfg.MessageChunkSize, slog.Default())

	err = bus.Subscribe(events.SubjectExportStored, func(subject string, data []byte) {
		var evt events.ExportStored
		if err := json.Unmarshal(data, &evt); err != nil {
			slog.Error("failed to parse export event", "error", err)
			return
		}

		channel := evt.Channel
		if channel == "" {
			channel = cfg.DefaultChannel
		}
		runner := ingest.NewRunner(ingest.Config{
			ExportPath: evt.Path,
			Channel:    channel,
			StatePath:  cfg.StatePath,
		}, persister, slog.Default())

		summary, err := runner.Run(ctx)
		if err != nil {
			slog.Error("ingest run failed", "path", evt.Path, "error", err)
			return
		}
		statsCache.InvalidateAll()

		if err := bus.Publish(events.SubjectIngestCompleted, events.IngestCompleted{
			Path:                  evt.Path,
			Records:               summary.Records,
			RecordsFailed:         summary.RecordsFailed,
			ConversationsUpserted: summary.ConversationsUpserted,
			MessagesInserted:      summary.MessagesInserted,
		}); err != nil {
			slog.Warn("failed to publish ingest event", "error", err)
		}
	})
	if err != nil {
		slog.Error("failed to subscribe to export events", "error", err)
		os.Exit(1)
	}

	// Periodic analysis passes.
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.AnalyzeEverySec) * time.Second)
		defer ticker.Stop()
		for {
			if _, err := an.RunOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("analysis pass failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// HTTP API
	srv := api.NewServer(cfg.Port, db, statsCache)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("chatsight ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("chatsight stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
