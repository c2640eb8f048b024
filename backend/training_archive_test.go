package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestGameArchiveFinalizeWritesParquet(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewGameArchive(dir)
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	archive.Record(TrainingGameRow{GameID: "g000001", Variant: VariantPositional, Winner: 1, DiscDiff: 12, Plies: 60, DurationMs: 40, Generation: 3, Source: "selfplay"})
	archive.Record(TrainingGameRow{GameID: "g000002", Variant: VariantPositional, Winner: 2, DiscDiff: -4, Plies: 58, DurationMs: 35, Generation: 4, Source: "selfplay"})
	if got := archive.Pending(); got != 2 {
		t.Fatalf("expected 2 buffered rows, got %d", got)
	}

	path, rows, err := archive.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if rows != 2 {
		t.Fatalf("finalize reported %d rows, want 2", rows)
	}
	if got := archive.Pending(); got != 0 {
		t.Fatalf("finalize should drain the buffer, %d rows left", got)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "games_") || !strings.HasSuffix(base, ".parquet") {
		t.Fatalf("unexpected archive file name %s", base)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone after finalize")
	}

	read, err := parquet.ReadFile[TrainingGameRow](path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(read) != 2 || read[0].GameID != "g000001" || read[1].Winner != 2 {
		t.Fatalf("read back rows do not match what was recorded: %+v", read)
	}
}

func TestGameArchiveFinalizeWithoutRows(t *testing.T) {
	archive, err := NewGameArchive(t.TempDir())
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	path, rows, err := archive.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if rows != 0 || path != "" {
		t.Fatalf("empty archive should finalize to nothing, got path=%q rows=%d", path, rows)
	}
}
