package main

import (
	"encoding/gob"
	"io"
	"log"
	"os"
	"path/filepath"
)

var dockerModelDir = "/model_data"

// modelPersistenceSnapshot is the on-disk shape of every trained model. Fields
// added later decode as zero values in older files, so loading stays tolerant
// of format drift.
type modelPersistenceSnapshot struct {
	Positional map[int]positionalSnapshot
	NTuple     map[int]ntupleSnapshot
}

func loadModelPersistence(cfg Config) {
	if cfg.ModelPath == "" {
		log.Printf("[ai:model] restore skipped (no path)")
		return
	}
	path := resolveModelPath(cfg.ModelPath)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[ai:model] no saved models at %s, starting fresh", path)
			return
		}
		log.Printf("[ai:model] failed to open %s: %v", path, err)
		return
	}
	defer file.Close()

	var snapshot modelPersistenceSnapshot
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		if isEOFError(err) {
			log.Printf("[ai:model] truncated model file %s, starting fresh", path)
			return
		}
		log.Printf("[ai:model] failed to decode %s: %v", path, err)
		return
	}

	restored := 0
	for size, snap := range snapshot.Positional {
		model, ok := ModelFor(VariantPositional, size).(*PositionalModel)
		if !ok {
			continue
		}
		if !model.importSnapshot(snap) {
			log.Printf("[ai:model] skipping positional size=%d (shape mismatch)", size)
			continue
		}
		restored++
	}
	for size, snap := range snapshot.NTuple {
		model, ok := ModelFor(VariantNTuple, size).(*NTupleModel)
		if !ok {
			continue
		}
		if !model.importSnapshot(snap) {
			log.Printf("[ai:model] skipping ntuple size=%d (shape mismatch)", size)
			continue
		}
		restored++
	}
	log.Printf("[ai:model] restored %d models from %s", restored, path)
}

func persistModels(cfg Config) {
	if cfg.ModelPath == "" {
		return
	}
	snapshot := modelPersistenceSnapshot{
		Positional: make(map[int]positionalSnapshot),
		NTuple:     make(map[int]ntupleSnapshot),
	}
	for key, model := range allModels() {
		switch m := model.(type) {
		case *PositionalModel:
			snapshot.Positional[key.size] = m.exportSnapshot()
		case *NTupleModel:
			snapshot.NTuple[key.size] = m.exportSnapshot()
		}
	}
	if len(snapshot.Positional) == 0 && len(snapshot.NTuple) == 0 {
		return
	}

	path := resolveModelPath(cfg.ModelPath)
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("[ai:model] unable to create model directory %s: %v", dir, err)
			return
		}
	}
	file, err := os.Create(path)
	if err != nil {
		log.Printf("[ai:model] failed to create %s: %v", path, err)
		return
	}
	defer file.Close()
	if err := gob.NewEncoder(file).Encode(&snapshot); err != nil {
		log.Printf("[ai:model] failed to encode %s: %v", path, err)
		return
	}
	log.Printf("[ai:model] stored %d models to %s", len(snapshot.Positional)+len(snapshot.NTuple), path)
}

func resolveModelPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if stat, err := os.Stat(dockerModelDir); err == nil && stat.IsDir() {
		return filepath.Join(dockerModelDir, path)
	}
	return path
}

func isEOFError(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
