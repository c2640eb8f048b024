package main

type Move struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Depth int `json:"depth,omitempty"`
}

func NewMove(x, y int) Move {
	return Move{X: x, Y: y}
}

// PassMove is the distinguished move a player makes when they have no
// disc-flipping placement available.
func PassMove() Move {
	return Move{X: -1, Y: -1}
}

func (m Move) IsPass() bool {
	return m.X == -1 && m.Y == -1
}

func (m Move) IsValid(boardSize int) bool {
	if m.IsPass() {
		return true
	}
	return m.X >= 0 && m.Y >= 0 && m.X < boardSize && m.Y < boardSize
}

func (m Move) Equals(other Move) bool {
	return m.X == other.X && m.Y == other.Y
}
