package main

import "fmt"

type Rules struct {
	settings GameSettings
}

func NewRules(settings GameSettings) Rules {
	return Rules{settings: settings}
}

var rayDirections = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1}}

// FlipsFor walks the eight rays from move and collects every opponent disc
// bracketed between the new disc and a friendly disc. Empty result means the
// placement is not legal.
func (r Rules) FlipsFor(board Board, move Move, playerCell Cell) []Move {
	return r.FlipsForInto(board, move, playerCell, nil)
}

func (r Rules) FlipsForInto(board Board, move Move, playerCell Cell, flips []Move) []Move {
	flips = flips[:0]
	if cap(flips) < 8 {
		flips = make([]Move, 0, 16)
	}
	if move.IsPass() || !board.IsEmpty(move.X, move.Y) {
		return flips
	}
	opponentCell := playerCell.Opponent()
	for i := 0; i < 8; i++ {
		dx := rayDirections[i][0]
		dy := rayDirections[i][1]
		x := move.X + dx
		y := move.Y + dy
		runStart := len(flips)
		for board.InBounds(x, y) && board.At(x, y) == opponentCell {
			flips = append(flips, Move{X: x, Y: y})
			x += dx
			y += dy
		}
		if !board.InBounds(x, y) || board.At(x, y) != playerCell {
			flips = flips[:runStart]
		}
	}
	return flips
}

func (r Rules) IsLegal(state GameState, move Move, player PlayerColor) (bool, string) {
	if !move.IsValid(r.settings.BoardSize) {
		return false, "out of bounds"
	}
	if move.IsPass() {
		if r.HasLegalMove(state.Board, player) {
			return false, "pass not allowed with moves available"
		}
		return true, ""
	}
	if !state.Board.IsEmpty(move.X, move.Y) {
		return false, "occupied"
	}
	if len(r.FlipsFor(state.Board, move, CellFromPlayer(player))) == 0 {
		return false, "no discs flipped"
	}
	return true, ""
}

func (r Rules) IsLegalDefault(state GameState, move Move) (bool, string) {
	return r.IsLegal(state, move, state.ToMove)
}

func (r Rules) LegalMoves(board Board, player PlayerColor) []Move {
	cell := CellFromPlayer(player)
	size := board.Size()
	moves := make([]Move, 0, 16)
	var scratch []Move
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if board.At(x, y) != CellEmpty {
				continue
			}
			scratch = r.FlipsForInto(board, Move{X: x, Y: y}, cell, scratch)
			if len(scratch) > 0 {
				moves = append(moves, Move{X: x, Y: y})
			}
		}
	}
	return moves
}

func (r Rules) HasLegalMove(board Board, player PlayerColor) bool {
	cell := CellFromPlayer(player)
	size := board.Size()
	var scratch []Move
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if board.At(x, y) != CellEmpty {
				continue
			}
			scratch = r.FlipsForInto(board, Move{X: x, Y: y}, cell, scratch)
			if len(scratch) > 0 {
				return true
			}
		}
	}
	return false
}

// ApplyMove mutates state with the given move for the side to move, flipping
// bracketed discs, advancing the turn, and maintaining the incremental hash
// and consecutive-pass counter. Terminal detection is left to the caller via
// Terminal. Returns the flipped discs, or an error for an illegal move.
func (r Rules) ApplyMove(state *GameState, move Move) ([]Move, error) {
	if ok, reason := r.IsLegal(*state, move, state.ToMove); !ok {
		return nil, fmt.Errorf("illegal move (%d,%d) for %s: %s", move.X, move.Y, CellFromPlayer(state.ToMove), reason)
	}
	return r.ApplyLegalMove(state, move), nil
}

// ApplyLegalMove is ApplyMove without the legality scan, for callers that
// took the move from LegalMoves.
func (r Rules) ApplyLegalMove(state *GameState, move Move) []Move {
	player := state.ToMove
	prevToMove := state.ToMove
	if move.IsPass() {
		state.PassCount++
		state.LastMove = move
		state.HasLastMove = true
		state.ToMove = otherPlayer(player)
		UpdateHashAfterPass(state, prevToMove)
		return nil
	}
	cell := CellFromPlayer(player)
	flips := r.FlipsFor(state.Board, move, cell)
	state.Board.Set(move.X, move.Y, cell)
	for _, flip := range flips {
		state.Board.Set(flip.X, flip.Y, cell)
	}
	state.PassCount = 0
	state.LastMove = move
	state.HasLastMove = true
	state.ToMove = otherPlayer(player)
	UpdateHashAfterMove(state, move, player, flips, prevToMove)
	return flips
}

// Terminal reports whether the position is over: two consecutive passes or a
// full board.
func (r Rules) Terminal(state GameState) bool {
	return state.PassCount >= 2 || state.Board.Full()
}

// Result decides the finished game by disc count.
func (r Rules) Result(board Board) GameStatus {
	black := board.CountCell(CellBlack)
	white := board.CountCell(CellWhite)
	switch {
	case black > white:
		return StatusBlackWon
	case white > black:
		return StatusWhiteWon
	default:
		return StatusDraw
	}
}

// DiscDifferential is the signed disc count from Black's perspective.
func (r Rules) DiscDifferential(board Board) int {
	return board.CountCell(CellBlack) - board.CountCell(CellWhite)
}

func (r Rules) String() string {
	return fmt.Sprintf("Rules{size=%d}", r.settings.BoardSize)
}
