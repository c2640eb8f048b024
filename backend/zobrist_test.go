package main

import "testing"

func TestHashIncludesSideToMove(t *testing.T) {
	settings := DefaultGameSettings()
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	state2 := state.Clone()
	state2.ToMove = otherPlayer(state2.ToMove)
	state2.recomputeHash()
	if state.Hash == state2.Hash {
		t.Fatalf("expected hash to differ for different side to move")
	}
}

func TestApplyMoveUpdatesHashIncrementally(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning

	for ply := 0; ply < 12; ply++ {
		moves := rules.LegalMoves(state.Board, state.ToMove)
		if len(moves) == 0 {
			break
		}
		rules.ApplyLegalMove(&state, moves[ply%len(moves)])
		if recomputed := ComputeHash(state); state.Hash != recomputed {
			t.Fatalf("ply %d: incremental hash %d != recomputed %d", ply, state.Hash, recomputed)
		}
	}
}

func TestPassUpdatesHash(t *testing.T) {
	settings := DefaultGameSettings()
	rules := NewRules(settings)
	state := DefaultGameState(settings)
	state.Status = StatusRunning
	before := state.Hash

	rules.ApplyLegalMove(&state, PassMove())
	if state.Hash == before {
		t.Fatalf("expected pass to change the hash via the side-to-move key")
	}
	if recomputed := ComputeHash(state); state.Hash != recomputed {
		t.Fatalf("incremental hash %d != recomputed %d after pass", state.Hash, recomputed)
	}

	rules.ApplyLegalMove(&state, PassMove())
	if state.Hash != before {
		t.Fatalf("two passes should restore the original hash")
	}
}
