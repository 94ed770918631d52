package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SplitConfig controls export splitting. Exports arrive as one multi-gigabyte
// JSON array; splitting turns that into ingestible chunk files without ever
// holding the whole document in memory.
type SplitConfig struct {
	InputPath  string
	OutDir     string
	ChunkBytes int64 // target chunk size; a single oversized record still gets its own chunk
}

// ChunkInfo describes one written chunk file.
type ChunkInfo struct {
	Index   int    `json:"index"`
	Records int    `json:"records"`
	Bytes   int64  `json:"bytes"`
	Path    string `json:"path"`
}

// SplitSummary is written next to the chunks as chunking_summary.json.
type SplitSummary struct {
	InputPath    string      `json:"input_path"`
	InputBytes   int64       `json:"input_bytes"`
	TotalRecords int         `json:"total_records"`
	Chunks       []ChunkInfo `json:"chunks"`
	CreatedAt    time.Time   `json:"created_at"`
}

// SplitExport streams the export array record by record and writes chunk
// files of roughly cfg.ChunkBytes each, plus a summary file.
func SplitExport(cfg SplitConfig, logger *slog.Logger) (SplitSummary, error) {
	var summary SplitSummary
	summary.InputPath = cfg.InputPath

	info, err := os.Stat(cfg.InputPath)
	if err != nil {
		return summary, fmt.Errorf("stat export: %w", err)
	}
	summary.InputBytes = info.Size()

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return summary, fmt.Errorf("create chunk dir: %w", err)
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return summary, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		return summary, fmt.Errorf("read export: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return summary, fmt.Errorf("export is not a JSON array (starts with %v)", tok)
	}

	var (
		current      []json.RawMessage
		currentBytes int64
		chunkIdx     int
	)

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		ci, err := writeChunk(cfg.OutDir, chunkIdx, current)
		if err != nil {
			return err
		}
		summary.Chunks = append(summary.Chunks, ci)
		logger.Info("chunk written", "path", ci.Path, "records", ci.Records, "bytes", ci.Bytes)
		current = nil
		currentBytes = 0
		chunkIdx++
		return nil
	}

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return summary, fmt.Errorf("decode record %d: %w", summary.TotalRecords, err)
		}

		size := int64(len(raw))
		if currentBytes+size > cfg.ChunkBytes && len(current) > 0 {
			if err := flush(); err != nil {
				return summary, err
			}
		}

		current = append(current, raw)
		currentBytes += size
		summary.TotalRecords++

		if summary.TotalRecords%1000 == 0 {
			logger.Info("splitting export", "records", summary.TotalRecords)
		}
	}
	if err := flush(); err != nil {
		return summary, err
	}

	summary.CreatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return summary, fmt.Errorf("marshal summary: %w", err)
	}
	summaryPath := filepath.Join(cfg.OutDir, "chunking_summary.json")
	if err := os.WriteFile(summaryPath, data, 0o644); err != nil {
		return summary, fmt.Errorf("write summary: %w", err)
	}

	logger.Info("split complete",
		"records", summary.TotalRecords,
		"chunks", len(summary.Chunks),
		"summary", summaryPath,
	)
	return summary, nil
}

func writeChunk(dir string, idx int, records []json.RawMessage) (ChunkInfo, error) {
	name := fmt.Sprintf("conversations_chunk_%03d.json", idx)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return ChunkInfo{}, fmt.Errorf("create chunk: %w", err)
	}
	defer f.Close()

	var written int64
	n, err := f.WriteString("[\n")
	if err != nil {
		return ChunkInfo{}, fmt.Errorf("write chunk: %w", err)
	}
	written += int64(n)

	for i, raw := range records {
		if i > 0 {
			n, err := f.WriteString(",\n")
			if err != nil {
				return ChunkInfo{}, fmt.Errorf("write chunk: %w", err)
			}
			written += int64(n)
		}
		n, err := f.Write(raw)
		if err != nil {
			return ChunkInfo{}, fmt.Errorf("write chunk: %w", err)
		}
		written += int64(n)
	}
	n, err = f.WriteString("\n]\n")
	if err != nil {
		return ChunkInfo{}, fmt.Errorf("write chunk: %w", err)
	}
	written += int64(n)

	return ChunkInfo{Index: idx, Records: len(records), Bytes: written, Path: path}, nil
}
