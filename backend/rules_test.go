package main

import "testing"

func TestOpeningPositionHasFourLegalMoves(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)

	for _, player := range []PlayerColor{PlayerBlack, PlayerWhite} {
		moves := rules.LegalMoves(state.Board, player)
		if len(moves) != 4 {
			t.Fatalf("%s: expected 4 legal opening moves, got %d (%s)", player, len(moves), formatMoves(moves))
		}
		for _, move := range moves {
			flips := rules.FlipsFor(state.Board, move, CellFromPlayer(player))
			if len(flips) != 1 {
				t.Fatalf("%s: opening move (%d,%d) should flip exactly 1 disc, flipped %d", player, move.X, move.Y, len(flips))
			}
		}
	}
}

func TestEveryLegalMoveFlipsAtLeastOneDisc(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	for ply := 0; ply < 20 && !rules.Terminal(state); ply++ {
		moves := rules.LegalMoves(state.Board, state.ToMove)
		if len(moves) == 0 {
			rules.ApplyLegalMove(&state, PassMove())
			continue
		}
		for _, move := range moves {
			if len(rules.FlipsFor(state.Board, move, CellFromPlayer(state.ToMove))) == 0 {
				t.Fatalf("ply %d: legal move (%d,%d) flips nothing", ply, move.X, move.Y)
			}
		}
		rules.ApplyLegalMove(&state, moves[0])
	}
}

func TestPlacementAddsExactlyOneDisc(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	for ply := 0; ply < 30 && !rules.Terminal(state); ply++ {
		before := state.Board.CountCell(CellBlack) + state.Board.CountCell(CellWhite)
		moves := rules.LegalMoves(state.Board, state.ToMove)
		if len(moves) == 0 {
			rules.ApplyLegalMove(&state, PassMove())
			after := state.Board.CountCell(CellBlack) + state.Board.CountCell(CellWhite)
			if after != before {
				t.Fatalf("ply %d: pass changed the disc count", ply)
			}
			continue
		}
		rules.ApplyLegalMove(&state, moves[ply%len(moves)])
		after := state.Board.CountCell(CellBlack) + state.Board.CountCell(CellWhite)
		if after != before+1 {
			t.Fatalf("ply %d: disc count went %d -> %d, want +1", ply, before, after)
		}
	}
}

func TestFlippedDiscsChangeOwnerNotCount(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	moves := rules.LegalMoves(state.Board, state.ToMove)
	mover := CellFromPlayer(state.ToMove)
	flips, err := rules.ApplyMove(&state, moves[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, flip := range flips {
		if got := state.Board.At(flip.X, flip.Y); got != mover {
			t.Fatalf("flipped disc at (%d,%d) is %s, want %s", flip.X, flip.Y, got, mover)
		}
	}
}

func TestPassIllegalWhileMovesAvailable(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	if ok, reason := rules.IsLegal(state, PassMove(), state.ToMove); ok {
		t.Fatalf("pass should be illegal in the opening position, got legal (%s)", reason)
	}
	if _, err := rules.ApplyMove(&state, PassMove()); err == nil {
		t.Fatalf("ApplyMove should reject a pass while placements exist")
	}
}

func TestIllegalMovesRejected(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning
	mid := settings.BoardSize / 2

	cases := []struct {
		name string
		move Move
	}{
		{"out of bounds", Move{X: -3, Y: 2}},
		{"beyond board", Move{X: settings.BoardSize, Y: 0}},
		{"occupied", Move{X: mid, Y: mid}},
		{"no flips", Move{X: 0, Y: 0}},
	}
	for _, tc := range cases {
		if _, err := rules.ApplyMove(&state, tc.move); err == nil {
			t.Fatalf("%s: expected error for move (%d,%d)", tc.name, tc.move.X, tc.move.Y)
		}
	}
}

func TestDoublePassEndsGame(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	rules.ApplyLegalMove(&state, PassMove())
	if rules.Terminal(state) {
		t.Fatalf("one pass should not end the game")
	}
	rules.ApplyLegalMove(&state, PassMove())
	if !rules.Terminal(state) {
		t.Fatalf("two consecutive passes should end the game")
	}
}

func TestPlacementResetsPassCount(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	rules.ApplyLegalMove(&state, PassMove())
	moves := rules.LegalMoves(state.Board, state.ToMove)
	rules.ApplyLegalMove(&state, moves[0])
	if state.PassCount != 0 {
		t.Fatalf("placement should reset the pass counter, got %d", state.PassCount)
	}
}

func TestResultByDiscCount(t *testing.T) {
	rules := NewRules(GameSettings{BoardSize: 4})
	board := NewBoard(4)
	board.Set(0, 0, CellBlack)
	board.Set(1, 0, CellBlack)
	board.Set(2, 0, CellWhite)
	if got := rules.Result(board); got != StatusBlackWon {
		t.Fatalf("expected black win, got %v", got)
	}
	board.Set(3, 0, CellWhite)
	if got := rules.Result(board); got != StatusDraw {
		t.Fatalf("expected draw, got %v", got)
	}
	if diff := rules.DiscDifferential(board); diff != 0 {
		t.Fatalf("expected zero differential, got %d", diff)
	}
}
