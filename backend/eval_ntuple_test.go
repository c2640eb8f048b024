package main

import (
	"math"
	"testing"
)

func TestNTupleScoreAntisymmetry(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8})
	state := DefaultGameState(DefaultGameSettings())
	state.Status = StatusRunning

	// Untrained tables score everything zero; train a little first so the
	// contract is checked against nonzero values.
	history, result := playScriptedGame(rules)
	model.Learn(history, result)

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

func TestNTupleLearnMovesValueTowardResult(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8})
	history, result := playScriptedGame(rules)
	// Force a decisive label so the target is nonzero regardless of how the
	// scripted playout happens to end.
	result.Status = StatusBlackWon

	target := result.BlackValue()
	last := history[len(history)-1].Board
	before := math.Abs(target - model.Score(last, PlayerBlack))
	model.Learn(history, result)
	after := math.Abs(target - model.Score(last, PlayerBlack))
	if after >= before {
		t.Fatalf("late-game value should move toward the result: |err| %f -> %f", before, after)
	}
	if model.GamesTrained() != 1 {
		t.Fatalf("expected 1 trained game, got %d", model.GamesTrained())
	}
}

func TestNTupleDrawStillUpdatesIntermediateValues(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8})
	history, _ := playScriptedGame(rules)

	// Pre-train so intermediate positions hold nonzero values: a draw then
	// has a zero terminal target but nonzero errors along the way.
	_, decisive := playScriptedGame(rules)
	decisive.Status = StatusBlackWon
	model.Learn(history, decisive)

	before := model.exportSnapshot()
	draw := GameResult{Status: StatusDraw, DiscDiff: 0, FinalBoard: history[len(history)-1].Board}
	model.Learn(history, draw)
	after := model.exportSnapshot()

	changed := false
	for si := range before.LUTs {
		for i := range before.LUTs[si] {
			if before.LUTs[si][i] != after.LUTs[si][i] {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Fatalf("draw with nonzero intermediate values should still correct table entries")
	}
}

func TestNTupleSymmetricImagesKeepDigitOrder(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	mainDiagSeen := false
	for si, shape := range model.shapes {
		want := boardSymmetries
		if shape.name == "diag" && !mainDiagSeen {
			// The main diagonal reads identically under transposition, so
			// half of its images coincide order-for-order.
			want = 4
			mainDiagSeen = true
		}
		if got := len(model.placements[si]); got != want {
			t.Fatalf("shape %d (%s): %d symmetric images, want %d", si, shape.name, got, want)
		}
	}
}

func TestNTupleScoreInvariantUnderBoardSymmetries(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8})
	history, result := playScriptedGame(rules)
	result.Status = StatusBlackWon
	model.Learn(history, result)

	board := history[len(history)/2].Board
	want := model.Score(board, PlayerBlack)
	for tr := 1; tr < boardSymmetries; tr++ {
		transformed := NewBoard(8)
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				tx, ty := transformXY(tr, x, y, 8)
				transformed.Set(tx, ty, board.At(x, y))
			}
		}
		got := model.Score(transformed, PlayerBlack)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("transform %d: score %.9f differs from original %.9f", tr, got, want)
		}
	}
}

func TestNTupleLearnRanksCornerAboveDangerSquare(t *testing.T) {
	model := NewNTupleModel(8, 0.05)

	// A batch encoding what self-play exhibits on average: the side holding
	// a corner wins, the side sitting on an X square under an empty corner
	// loses.
	cornerBoard := NewBoard(8)
	cornerBoard.Set(0, 0, CellBlack)
	xSquareBoard := NewBoard(8)
	xSquareBoard.Set(1, 1, CellBlack)
	for i := 0; i < 10; i++ {
		model.Learn(
			[]PlyRecord{{Board: cornerBoard.Clone(), ToMove: PlayerBlack}},
			GameResult{Status: StatusBlackWon, DiscDiff: 8, FinalBoard: cornerBoard.Clone()},
		)
		model.Learn(
			[]PlyRecord{{Board: xSquareBoard.Clone(), ToMove: PlayerBlack}},
			GameResult{Status: StatusWhiteWon, DiscDiff: -8, FinalBoard: xSquareBoard.Clone()},
		)
	}

	corner := model.Score(cornerBoard, PlayerBlack)
	xSquare := model.Score(xSquareBoard, PlayerBlack)
	if corner <= xSquare {
		t.Fatalf("trained corner value %f should exceed X-square value %f", corner, xSquare)
	}
}

func TestNTupleMoveEstimatePrefersCorners(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	board := NewBoard(8)
	corner := model.MoveEstimate(board, Move{X: 0, Y: 0}, PlayerBlack)
	xSquare := model.MoveEstimate(board, Move{X: 1, Y: 1}, PlayerBlack)
	if corner <= xSquare {
		t.Fatalf("corner estimate %f should exceed X-square estimate %f", corner, xSquare)
	}
	if got := model.MoveEstimate(board, PassMove(), PlayerBlack); got != 0 {
		t.Fatalf("pass estimate should be zero, got %f", got)
	}
}

func TestNTupleResetZeroesTables(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8})
	history, result := playScriptedGame(rules)
	model.Learn(history, result)

	model.Reset()
	snapshot := model.exportSnapshot()
	for si := range snapshot.LUTs {
		for i, v := range snapshot.LUTs[si] {
			if v != 0 {
				t.Fatalf("table %d entry %d not zeroed after reset: %f", si, i, v)
			}
		}
	}
	if model.GamesTrained() != 0 {
		t.Fatalf("reset should clear trained games")
	}
}

func TestNTupleSnapshotRoundtrip(t *testing.T) {
	model := NewNTupleModel(8, 0.05)
	rules := NewRules(GameSettings{BoardSize: 8})
	history, result := playScriptedGame(rules)
	model.Learn(history, result)

	snapshot := model.exportSnapshot()
	restored := NewNTupleModel(8, 0.05)
	if !restored.importSnapshot(snapshot) {
		t.Fatalf("snapshot import should succeed for matching shapes")
	}
	board := history[len(history)/2].Board
	if restored.Score(board, PlayerBlack) != model.Score(board, PlayerBlack) {
		t.Fatalf("restored model scores differ from original")
	}

	other := NewNTupleModel(6, 0.05)
	if other.importSnapshot(snapshot) {
		t.Fatalf("snapshot import should reject a different board size")
	}
}

// playScriptedGame plays a deterministic full game by always taking the first
// legal move in board order.
func playScriptedGame(rules Rules) ([]PlyRecord, GameResult) {
	state := DefaultGameState(DefaultGameSettings())
	state.Status = StatusRunning
	history := make([]PlyRecord, 0, 64)
	for !rules.Terminal(state) {
		moves := rules.LegalMoves(state.Board, state.ToMove)
		history = append(history, PlyRecord{Board: state.Board.Clone(), ToMove: state.ToMove})
		if len(moves) == 0 {
			rules.ApplyLegalMove(&state, PassMove())
			continue
		}
		rules.ApplyLegalMove(&state, moves[0])
	}
	return history, GameResult{
		Status:     rules.Result(state.Board),
		DiscDiff:   rules.DiscDifferential(state.Board),
		FinalBoard: state.Board.Clone(),
	}
}
