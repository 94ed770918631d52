package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/chatsight/chatsight/internal/config"
	"github.com/chatsight/chatsight/internal/ingest"
	"github.com/chatsight/chatsight/internal/store"
)

func main() {
	_ = godotenv.Load()

	var (
		file      = flag.String("file", "", "export JSON file to ingest")
		channel   = flag.String("channel", "", "channel label for records that carry none")
		chunkSize = flag.Int("chunk-size", 0, "messages per insert chunk (default from env)")
		dryRun    = flag.Bool("dry-run", false, "segment and build but write nothing")
		statePath = flag.String("state", "", "ingest state file path")
		split     = flag.Bool("split", false, "split a large export into chunk files instead of ingesting")
		splitOut  = flag.String("split-out", "chunks", "output directory for -split")
		splitMB   = flag.Int("split-mb", 100, "target chunk size in MB for -split")
	)
	flag.Parse()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: chatsight-ingest -file export.json [-channel webchat] [-dry-run]")
		fmt.Fprintln(os.Stderr, "       chatsight-ingest -file export.json -split [-split-out chunks] [-split-mb 100]")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("interrupt received, stopping")
		cancel()
	}()

	if *split {
		_, err := ingest.SplitExport(ingest.SplitConfig{
			InputPath:  *file,
			OutDir:     *splitOut,
			ChunkBytes: int64(*splitMB) * 1024 * 1024,
		}, slog.Default())
		if err != nil {
			slog.Error("split failed", "error", err)
			os.Exit(1)
		}
		return
	}

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

	if *channel == "" {
		*channel = cfg.DefaultChannel
	}
	if *chunkSize == 0 {
		*chunkSize = cfg.MessageChunkSize
	}
	if *statePath == "" {
		*statePath = cfg.StatePath
	}

	persister := ingest.NewPersister(db, *chunkSize, slog.Default())
	runner := ingest.NewRunner(ingest.Config{
		ExportPath: *file,
		Channel:    *channel,
		DryRun:     *dryRun,
		StatePath:  *statePath,
	}, persister, slog.Default())

	if _, err := runner.Run(ctx); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
