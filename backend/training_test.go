package main

import (
	"path/filepath"
	"testing"
	"time"
)

// withTempModelPath points autosaves at a throwaway directory for the duration
// of a test.
func withTempModelPath(t *testing.T) {
	t.Helper()
	prev := GetConfig()
	cfg := prev
	cfg.ModelPath = filepath.Join(t.TempDir(), "models.gob")
	configStore.Update(cfg)
	t.Cleanup(func() { configStore.Update(prev) })
}

func TestTrainerRunsRequestedGames(t *testing.T) {
	withTempModelPath(t)
	snapshots := make([]TrainingSnapshot, 0, 8)
	updates := 0
	trainer := NewTrainer(8,
		func(s TrainingSnapshot) { snapshots = append(snapshots, s) },
		func(ModelUpdate) { updates++ },
	)

	cfg := DefaultConfig().Training
	cfg.Variant = VariantNTuple
	cfg.SearchDepth = 1
	cfg.Epsilon = 0.2
	cfg.SnapshotEvery = 2
	cfg.AutosaveEvery = 0
	cfg.MaxGames = 4
	if err := trainer.Start(cfg); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(60 * time.Second)
	for trainer.Running() {
		select {
		case <-deadline:
			t.Fatalf("trainer did not finish %d games in time", cfg.MaxGames)
		case <-time.After(20 * time.Millisecond):
		}
	}

	status := trainer.Status()
	if status.GamesPlayed != cfg.MaxGames {
		t.Fatalf("played %d games, want %d", status.GamesPlayed, cfg.MaxGames)
	}
	if total := status.BlackWins + status.WhiteWins + status.Draws; total != cfg.MaxGames {
		t.Fatalf("tallies sum to %d, want %d", total, cfg.MaxGames)
	}
	if len(snapshots) == 0 {
		t.Fatalf("expected progress snapshots during the run")
	}
	if updates == 0 {
		t.Fatalf("expected model update notifications")
	}
}

func TestTrainerStopFinishesInFlightGame(t *testing.T) {
	withTempModelPath(t)
	trainer := NewTrainer(8, nil, nil)
	cfg := DefaultConfig().Training
	cfg.SearchDepth = 1
	cfg.AutosaveEvery = 0
	cfg.MaxGames = 0
	if err := trainer.Start(cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := trainer.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if trainer.Running() {
		t.Fatalf("trainer still running after Stop returned")
	}

	status := trainer.Status()
	if total := status.BlackWins + status.WhiteWins + status.Draws; total != status.GamesPlayed {
		t.Fatalf("tallies sum to %d but %d games were played", total, status.GamesPlayed)
	}
}

func TestTrainerRejectsDoubleStart(t *testing.T) {
	withTempModelPath(t)
	trainer := NewTrainer(8, nil, nil)
	cfg := DefaultConfig().Training
	cfg.SearchDepth = 1
	cfg.AutosaveEvery = 0
	cfg.MaxGames = 0
	if err := trainer.Start(cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = trainer.Stop() }()
	if err := trainer.Start(cfg); err == nil {
		t.Fatalf("second start should fail while a job is running")
	}
}

func TestTrainerRejectsUnknownVariant(t *testing.T) {
	trainer := NewTrainer(8, nil, nil)
	cfg := DefaultConfig().Training
	cfg.Variant = "deep"
	if err := trainer.Start(cfg); err == nil {
		_ = trainer.Stop()
		t.Fatalf("unknown variant should be rejected")
	}
}

func TestTrainingGameLearnAdvancesGeneration(t *testing.T) {
	trainer := NewTrainer(8, nil, nil)
	trainer.cfg = DefaultConfig().Training
	trainer.cfg.SearchDepth = 1
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8, BlackStarts: true})

	genBefore := model.Generation()
	history, result, plies := trainer.playTrainingGame(model, rules, GameSettings{BoardSize: 8, BlackStarts: true})
	if plies == 0 || len(history) == 0 {
		t.Fatalf("training game produced no plies")
	}
	if result.FinalBoard.Size() != 8 {
		t.Fatalf("result should carry the final board")
	}
	model.Learn(history, result)
	if model.Generation() <= genBefore {
		t.Fatalf("learning should advance the model generation")
	}
}
