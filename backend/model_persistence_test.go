package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModelPersistenceRoundtrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "models.gob")

	model, ok := ModelFor(VariantPositional, 8).(*PositionalModel)
	if !ok {
		t.Fatalf("expected a positional model for the default variant")
	}
	final := NewBoard(8)
	final.Set(0, 0, CellBlack)
	model.Learn(nil, GameResult{Status: StatusBlackWon, DiscDiff: 1, FinalBoard: final})
	trained := model.WeightAt(0, 0)

	persistModels(cfg)
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		t.Fatalf("model file not written: %v", err)
	}

	model.Reset()
	if model.WeightAt(0, 0) == trained {
		t.Fatalf("reset should discard the trained weight")
	}
	loadModelPersistence(cfg)
	if got := model.WeightAt(0, 0); got != trained {
		t.Fatalf("restored weight %f, want %f", got, trained)
	}
}

func TestLoadModelPersistenceToleratesMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "absent.gob")
	loadModelPersistence(cfg)
}

func TestLoadModelPersistenceToleratesTruncatedFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "models.gob")
	if err := os.WriteFile(cfg.ModelPath, []byte{0x1f, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loadModelPersistence(cfg)
}

func TestPersistModelsSkipsEmptyPath(t *testing.T) {
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	entriesBefore, err := os.ReadDir(prev)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	persistModels(Config{ModelPath: ""})
	entriesAfter, err := os.ReadDir(prev)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entriesAfter) != len(entriesBefore) {
		t.Fatalf("empty model path must not create files")
	}
}

func TestResolveModelPathUsesSharedVolume(t *testing.T) {
	dir := t.TempDir()
	prev := dockerModelDir
	dockerModelDir = dir
	defer func() { dockerModelDir = prev }()

	if got := resolveModelPath("models.gob"); got != filepath.Join(dir, "models.gob") {
		t.Fatalf("relative path should land in the shared volume, got %s", got)
	}
	abs := filepath.Join(dir, "elsewhere", "models.gob")
	if got := resolveModelPath(abs); got != abs {
		t.Fatalf("absolute path should pass through, got %s", got)
	}
}
