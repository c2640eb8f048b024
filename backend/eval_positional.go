package main

import (
	"sync"
	"sync/atomic"
)

// PositionalModel scores a board from a per-cell weight table plus a corner
// bonus, a danger penalty for corner-adjacent cells while their corner is
// still empty, and a mobility differential. Weights live as one parameter per
// rotation orbit, so a learning update to any cell moves its three rotated
// twins with it.
type PositionalModel struct {
	mu           sync.RWMutex
	size         int
	classOf      []int
	weights      []float64
	heuristics   HeuristicConfig
	rules        Rules
	gamesTrained uint64
	generation   atomic.Uint64

	learningRate float64
}

func NewPositionalModel(size int, heuristics HeuristicConfig) *PositionalModel {
	classOf, classes := rotationClasses(size)
	m := &PositionalModel{
		size:         size,
		classOf:      classOf,
		weights:      make([]float64, classes),
		heuristics:   heuristics,
		rules:        NewRules(GameSettings{BoardSize: size}),
		learningRate: 1.0,
	}
	m.seedWeights()
	m.generation.Store(1)
	return m
}

func (m *PositionalModel) Name() string { return VariantPositional }

func (m *PositionalModel) seedWeights() {
	for idx, class := range m.classOf {
		m.weights[class] = baseCellWeight(idx%m.size, idx/m.size, m.size)
	}
}

// baseCellWeight is the classic positional prior: corners dominate, the
// cells touching a corner are liabilities, edges are mildly good.
func baseCellWeight(x, y, size int) float64 {
	mirror := func(v int) int {
		if half := size / 2; v >= half {
			return size - 1 - v
		}
		return v
	}
	mx := mirror(x)
	my := mirror(y)
	if mx > my {
		mx, my = my, mx
	}
	switch {
	case mx == 0 && my == 0:
		return 100.0
	case mx == 1 && my == 1:
		return -50.0
	case mx == 0 && my == 1:
		return -20.0
	case mx == 0:
		return 10.0
	case mx == 1:
		return -2.0
	default:
		return 1.0
	}
}

func (m *PositionalModel) Score(board Board, player PlayerColor) float64 {
	m.mu.RLock()
	value := m.blackScore(board)
	m.mu.RUnlock()
	if player == PlayerWhite {
		return -value
	}
	return value
}

func (m *PositionalModel) blackScore(board Board) float64 {
	value := 0.0
	for idx, class := range m.classOf {
		cell := board.At(idx%m.size, idx/m.size)
		if cell == CellEmpty {
			continue
		}
		w := m.weights[class]
		if cell == CellBlack {
			value += w
		} else {
			value -= w
		}
	}
	value += m.cornerTerms(board)
	mobility := len(m.rules.LegalMoves(board, PlayerBlack)) - len(m.rules.LegalMoves(board, PlayerWhite))
	value += m.heuristics.MobilityWeight * float64(mobility)
	return value
}

func (m *PositionalModel) cornerTerms(board Board) float64 {
	value := 0.0
	last := m.size - 1
	corners := [4][2]int{{0, 0}, {last, 0}, {0, last}, {last, last}}
	for _, corner := range corners {
		cx, cy := corner[0], corner[1]
		owner := board.At(cx, cy)
		if owner != CellEmpty {
			if owner == CellBlack {
				value += m.heuristics.CornerBonus
			} else {
				value -= m.heuristics.CornerBonus
			}
			continue
		}
		// The corner is open: discs on its X and C squares are exposed.
		for _, adj := range cornerAdjacents(cx, cy, m.size) {
			cell := board.At(adj[0], adj[1])
			if cell == CellBlack {
				value -= m.heuristics.DangerPenalty
			} else if cell == CellWhite {
				value += m.heuristics.DangerPenalty
			}
		}
	}
	return value
}

func cornerAdjacents(cx, cy, size int) [][2]int {
	dx := 1
	if cx > 0 {
		dx = -1
	}
	dy := 1
	if cy > 0 {
		dy = -1
	}
	return [][2]int{{cx + dx, cy}, {cx, cy + dy}, {cx + dx, cy + dy}}
}

// MoveEstimate is the cheap static estimate used for move ordering: the
// destination cell weight from the mover's perspective, with the corner and
// danger adjustments folded in.
func (m *PositionalModel) MoveEstimate(board Board, move Move, player PlayerColor) float64 {
	if move.IsPass() {
		return 0.0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := move.Y*m.size + move.X
	estimate := m.weights[m.classOf[idx]]
	last := m.size - 1
	if (move.X == 0 || move.X == last) && (move.Y == 0 || move.Y == last) {
		estimate += m.heuristics.CornerBonus
	} else if nearCorner, cornerX, cornerY := dangerSquareCorner(move.X, move.Y, m.size); nearCorner {
		if board.At(cornerX, cornerY) == CellEmpty {
			estimate -= m.heuristics.DangerPenalty
		}
	}
	return estimate
}

func dangerSquareCorner(x, y, size int) (bool, int, int) {
	last := size - 1
	cornerX := 0
	if x >= size/2 {
		cornerX = last
	}
	cornerY := 0
	if y >= size/2 {
		cornerY = last
	}
	dx := x - cornerX
	if dx < 0 {
		dx = -dx
	}
	dy := y - cornerY
	if dy < 0 {
		dy = -dy
	}
	return dx <= 1 && dy <= 1 && (dx+dy) > 0, cornerX, cornerY
}

// Learn applies outcome credit to the final board: every cell the winner
// occupies moves its orbit weight up by the learning rate, every loser cell
// moves it down. A draw changes nothing.
func (m *PositionalModel) Learn(history []PlyRecord, result GameResult) {
	winner := CellEmpty
	switch result.Status {
	case StatusBlackWon:
		winner = CellBlack
	case StatusWhiteWon:
		winner = CellWhite
	default:
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clamp := m.heuristics.WeightClamp
	for idx, class := range m.classOf {
		cell := result.FinalBoard.At(idx%m.size, idx/m.size)
		if cell == CellEmpty {
			continue
		}
		if cell == winner {
			m.weights[class] += m.learningRate
		} else {
			m.weights[class] -= m.learningRate
		}
		if clamp > 0 {
			if m.weights[class] > clamp {
				m.weights[class] = clamp
			}
			if m.weights[class] < -clamp {
				m.weights[class] = -clamp
			}
		}
	}
	m.gamesTrained++
	m.generation.Add(1)
}

func (m *PositionalModel) SetLearningRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rate > 0 {
		m.learningRate = rate
	}
}

func (m *PositionalModel) Generation() uint64 {
	return m.generation.Load()
}

func (m *PositionalModel) GamesTrained() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamesTrained
}

func (m *PositionalModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedWeights()
	m.gamesTrained = 0
	m.generation.Add(1)
}

// WeightAt exposes the effective weight of a cell, mostly for inspection.
func (m *PositionalModel) WeightAt(x, y int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weights[m.classOf[y*m.size+x]]
}

func (m *PositionalModel) ParameterCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weights)
}

type positionalSnapshot struct {
	Size         int
	Weights      []float64
	GamesTrained uint64
}

func (m *PositionalModel) exportSnapshot() positionalSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return positionalSnapshot{
		Size:         m.size,
		Weights:      append([]float64(nil), m.weights...),
		GamesTrained: m.gamesTrained,
	}
}

func (m *PositionalModel) importSnapshot(snapshot positionalSnapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snapshot.Size != m.size || len(snapshot.Weights) != len(m.weights) {
		return false
	}
	copy(m.weights, snapshot.Weights)
	m.gamesTrained = snapshot.GamesTrained
	m.generation.Add(1)
	return true
}
