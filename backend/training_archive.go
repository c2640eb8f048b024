package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// TrainingGameRow is one finished self-play game in the parquet archive.
type TrainingGameRow struct {
	GameID     string `parquet:"game_id"`
	Variant    string `parquet:"variant,dict"`
	Winner     int32  `parquet:"winner"`
	DiscDiff   int32  `parquet:"disc_diff"`
	Plies      int32  `parquet:"plies"`
	DurationMs int64  `parquet:"duration_ms"`
	Generation int64  `parquet:"generation"`
	Source     string `parquet:"source,dict"`
}

// GameArchive buffers finished game rows and writes them as a single parquet
// file on Finalize. The file lands under a temporary name first and is
// renamed into place so readers never observe a partial file.
type GameArchive struct {
	mu   sync.Mutex
	dir  string
	rows []TrainingGameRow
}

func NewGameArchive(dir string) (*GameArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &GameArchive{dir: dir}, nil
}

func (a *GameArchive) Record(row TrainingGameRow) {
	a.mu.Lock()
	a.rows = append(a.rows, row)
	a.mu.Unlock()
}

func (a *GameArchive) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

func (a *GameArchive) Finalize() (string, int, error) {
	a.mu.Lock()
	rows := a.rows
	a.rows = nil
	a.mu.Unlock()
	if len(rows) == 0 {
		return "", 0, nil
	}

	name := fmt.Sprintf("games_%s.parquet", time.Now().UTC().Format("20060102T150405"))
	finalPath := filepath.Join(a.dir, name)
	tmpPath := finalPath + ".tmp"

	err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("source", "reversi-selfplay"),
	)
	if err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("finalize parquet: %w", err)
	}
	return finalPath, len(rows), nil
}
