package main

import (
	"math"
	"testing"
)

func testHeuristics() HeuristicConfig {
	return DefaultConfig().Heuristics
}

func TestPositionalScoreAntisymmetry(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	rules := NewRules(GameSettings{BoardSize: 8})
	state := DefaultGameState(DefaultGameSettings())
	state.Status = StatusRunning

	for ply := 0; ply < 10; ply++ {
		black := model.Score(state.Board, PlayerBlack)
		white := model.Score(state.Board, PlayerWhite)
		if black != -white {
			t.Fatalf("ply %d: score antisymmetry broken: black=%f white=%f", ply, black, white)
		}
		moves := rules.LegalMoves(state.Board, state.ToMove)
		if len(moves) == 0 {
			break
		}
		rules.ApplyLegalMove(&state, moves[0])
	}
}

func TestPositionalSeedPrefersCornersOverDangerSquares(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	if model.WeightAt(0, 0) <= model.WeightAt(1, 1) {
		t.Fatalf("corner weight %f should exceed X-square weight %f", model.WeightAt(0, 0), model.WeightAt(1, 1))
	}
	if model.WeightAt(0, 0) <= model.WeightAt(1, 0) {
		t.Fatalf("corner weight %f should exceed C-square weight %f", model.WeightAt(0, 0), model.WeightAt(1, 0))
	}
}

func TestPositionalSelfPlayKeepsCornerAboveDangerSquares(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	trainer := NewTrainer(8, nil, nil)
	trainer.cfg = DefaultConfig().Training
	trainer.cfg.SearchDepth = 1
	settings := GameSettings{BoardSize: 8, BlackStarts: true}
	rules := NewRules(settings)

	for i := 0; i < 12; i++ {
		history, result, _ := trainer.playTrainingGame(model, rules, settings)
		if len(history) == 0 {
			t.Fatalf("game %d produced no plies", i)
		}
		model.Learn(history, result)
	}

	if corner, x := model.WeightAt(0, 0), model.WeightAt(1, 1); corner <= x {
		t.Fatalf("after training, corner weight %f should exceed X-square weight %f", corner, x)
	}
	if corner, c := model.WeightAt(0, 0), model.WeightAt(1, 0); corner <= c {
		t.Fatalf("after training, corner weight %f should exceed C-square weight %f", corner, c)
	}
}

func TestPositionalLearnCreditsWinnerCells(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	cornerBefore := model.WeightAt(0, 0)
	dangerBefore := model.WeightAt(1, 1)

	final := NewBoard(8)
	final.Set(0, 0, CellBlack)
	final.Set(1, 1, CellWhite)
	result := GameResult{Status: StatusBlackWon, DiscDiff: 1, FinalBoard: final}
	model.Learn(nil, result)

	if got := model.WeightAt(0, 0); got <= cornerBefore {
		t.Fatalf("winner corner weight should increase: %f -> %f", cornerBefore, got)
	}
	if got := model.WeightAt(1, 1); got >= dangerBefore {
		t.Fatalf("loser cell weight should decrease: %f -> %f", dangerBefore, got)
	}
	if model.GamesTrained() != 1 {
		t.Fatalf("expected 1 trained game, got %d", model.GamesTrained())
	}
}

func TestPositionalLearnSharesRotationOrbit(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	final := NewBoard(8)
	final.Set(0, 0, CellBlack)
	before := model.WeightAt(7, 7)
	model.Learn(nil, GameResult{Status: StatusBlackWon, DiscDiff: 1, FinalBoard: final})

	// All four corners share one parameter, so crediting (0,0) moves (7,7).
	if got := model.WeightAt(7, 7); got <= before {
		t.Fatalf("rotated corner weight should move with (0,0): %f -> %f", before, got)
	}
}

func TestPositionalDrawDoesNotMutateWeights(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	snapshot := model.exportSnapshot()
	genBefore := model.Generation()

	final := NewBoard(8)
	final.Set(0, 0, CellBlack)
	final.Set(7, 7, CellWhite)
	model.Learn(nil, GameResult{Status: StatusDraw, DiscDiff: 0, FinalBoard: final})

	after := model.exportSnapshot()
	for i := range snapshot.Weights {
		if snapshot.Weights[i] != after.Weights[i] {
			t.Fatalf("weight %d changed on a draw: %f -> %f", i, snapshot.Weights[i], after.Weights[i])
		}
	}
	if model.Generation() != genBefore {
		t.Fatalf("generation should not change on a draw")
	}
	if model.GamesTrained() != 0 {
		t.Fatalf("draw should not count as a trained game")
	}
}

func TestPositionalLearnClampsWeights(t *testing.T) {
	heuristics := testHeuristics()
	heuristics.WeightClamp = 101.0
	model := NewPositionalModel(8, heuristics)
	model.SetLearningRate(10.0)

	final := NewBoard(8)
	final.Set(0, 0, CellBlack)
	for i := 0; i < 5; i++ {
		model.Learn(nil, GameResult{Status: StatusBlackWon, DiscDiff: 1, FinalBoard: final})
	}
	if got := model.WeightAt(0, 0); got > heuristics.WeightClamp {
		t.Fatalf("weight %f exceeds clamp %f", got, heuristics.WeightClamp)
	}
}

func TestPositionalResetRestoresSeed(t *testing.T) {
	model := NewPositionalModel(8, testHeuristics())
	final := NewBoard(8)
	final.Set(0, 0, CellBlack)
	model.Learn(nil, GameResult{Status: StatusBlackWon, DiscDiff: 1, FinalBoard: final})
	genBefore := model.Generation()

	model.Reset()
	if math.Abs(model.WeightAt(0, 0)-100.0) > 1e-9 {
		t.Fatalf("reset should restore the seed corner weight, got %f", model.WeightAt(0, 0))
	}
	if model.GamesTrained() != 0 {
		t.Fatalf("reset should clear trained games")
	}
	if model.Generation() <= genBefore {
		t.Fatalf("reset should advance the generation")
	}
}
