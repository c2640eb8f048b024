package main

import (
	"sync"
	"sync/atomic"
)

// NTupleModel scores a board through lookup tables indexed by the base-3
// encoding of small fixed cell groups. Each shape owns one table shared by
// every symmetric placement of the shape, and the value is always computed
// from Black's perspective; White's score is the negation, which makes the
// antisymmetry contract structural.
type NTupleModel struct {
	mu           sync.RWMutex
	size         int
	shapes       []tupleShape
	placements   [][][]int
	luts         [][]float64
	learningRate float64
	gamesTrained uint64
	generation   atomic.Uint64
}

type tupleShape struct {
	name  string
	cells [][2]int
}

type lutRef struct {
	shape int
	entry int
}

func NewNTupleModel(size int, learningRate float64) *NTupleModel {
	if learningRate <= 0 {
		learningRate = 0.01
	}
	m := &NTupleModel{
		size:         size,
		shapes:       defaultTupleShapes(size),
		learningRate: learningRate,
	}
	m.placements = make([][][]int, len(m.shapes))
	m.luts = make([][]float64, len(m.shapes))
	for si, shape := range m.shapes {
		m.placements[si] = symmetricPlacements(shape, size)
		entries := 1
		for range shape.cells {
			entries *= 3
		}
		m.luts[si] = make([]float64, entries)
	}
	m.generation.Store(1)
	return m
}

func defaultTupleShapes(size int) []tupleShape {
	shapes := make([]tupleShape, 0, 8)
	half := size / 2
	for y := 0; y < half; y++ {
		row := make([][2]int, 0, size)
		for x := 0; x < size; x++ {
			row = append(row, [2]int{x, y})
		}
		shapes = append(shapes, tupleShape{name: "row", cells: row})
	}
	for offset := 0; offset < 3 && size-offset >= 4; offset++ {
		diag := make([][2]int, 0, size-offset)
		for i := 0; i+offset < size; i++ {
			diag = append(diag, [2]int{i + offset, i})
		}
		shapes = append(shapes, tupleShape{name: "diag", cells: diag})
	}
	if size >= 6 {
		block := make([][2]int, 0, 9)
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				block = append(block, [2]int{x, y})
			}
		}
		shapes = append(shapes, tupleShape{name: "corner3x3", cells: block})
	}
	return shapes
}

// symmetricPlacements maps a shape through the eight board symmetries. The
// digit order of each image is significant: a row read right-to-left indexes
// a different table entry than the same row read left-to-right, so images
// collapse only when the transform reproduces the exact same index sequence
// (the main diagonal under transposition, for example). Keeping every
// distinct order is what makes the summed value invariant under board
// reflection and rotation.
func symmetricPlacements(shape tupleShape, size int) [][]int {
	seen := make(map[string]bool)
	placements := make([][]int, 0, boardSymmetries)
	for t := 0; t < boardSymmetries; t++ {
		indices := make([]int, len(shape.cells))
		for i, cell := range shape.cells {
			x, y := transformXY(t, cell[0], cell[1], size)
			indices[i] = y*size + x
		}
		key := placementKey(indices)
		if seen[key] {
			continue
		}
		seen[key] = true
		placements = append(placements, indices)
	}
	return placements
}

func placementKey(indices []int) string {
	key := make([]byte, 0, len(indices)*2)
	for _, idx := range indices {
		key = append(key, byte(idx), byte(idx>>8))
	}
	return string(key)
}

func cellDigit(cell Cell) int {
	switch cell {
	case CellBlack:
		return 1
	case CellWhite:
		return 2
	default:
		return 0
	}
}

func (m *NTupleModel) Name() string { return VariantNTuple }

func (m *NTupleModel) Score(board Board, player PlayerColor) float64 {
	m.mu.RLock()
	value := m.blackValue(board)
	m.mu.RUnlock()
	if player == PlayerWhite {
		return -value
	}
	return value
}

func (m *NTupleModel) blackValue(board Board) float64 {
	value := 0.0
	for si := range m.shapes {
		lut := m.luts[si]
		for _, placement := range m.placements[si] {
			value += lut[m.entryIndex(board, placement)]
		}
	}
	return value
}

func (m *NTupleModel) entryIndex(board Board, placement []int) int {
	k := 0
	for _, idx := range placement {
		k = k*3 + cellDigit(board.cells[idx])
	}
	return k
}

func (m *NTupleModel) touchedEntries(board Board) ([]lutRef, float64) {
	refs := make([]lutRef, 0, 64)
	value := 0.0
	for si := range m.shapes {
		lut := m.luts[si]
		for _, placement := range m.placements[si] {
			entry := m.entryIndex(board, placement)
			value += lut[entry]
			refs = append(refs, lutRef{shape: si, entry: entry})
		}
	}
	return refs, value
}

// MoveEstimate orders moves by the static positional prior; the tables are
// too coarse per-cell to rank single placements cheaply.
func (m *NTupleModel) MoveEstimate(board Board, move Move, player PlayerColor) float64 {
	if move.IsPass() {
		return 0.0
	}
	return baseCellWeight(move.X, move.Y, m.size)
}

// Learn runs one reverse TD(0) sweep over the game: starting from the final
// result as target, each visited position pulls its touched table entries
// toward the target, then becomes the target for the position before it.
func (m *NTupleModel) Learn(history []PlyRecord, result GameResult) {
	if len(history) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	target := result.BlackValue()
	for i := len(history) - 1; i >= 0; i-- {
		refs, value := m.touchedEntries(history[i].Board)
		if len(refs) == 0 {
			continue
		}
		delta := m.learningRate * (target - value) / float64(len(refs))
		for _, ref := range refs {
			m.luts[ref.shape][ref.entry] += delta
		}
		target = value
	}
	m.gamesTrained++
	m.generation.Add(1)
}

func (m *NTupleModel) SetLearningRate(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rate > 0 {
		m.learningRate = rate
	}
}

func (m *NTupleModel) Generation() uint64 {
	return m.generation.Load()
}

func (m *NTupleModel) GamesTrained() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamesTrained
}

func (m *NTupleModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for si := range m.luts {
		for i := range m.luts[si] {
			m.luts[si][i] = 0
		}
	}
	m.gamesTrained = 0
	m.generation.Add(1)
}

func (m *NTupleModel) ParameterCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, lut := range m.luts {
		count += len(lut)
	}
	return count
}

type ntupleSnapshot struct {
	Size         int
	LUTs         [][]float64
	GamesTrained uint64
}

func (m *NTupleModel) exportSnapshot() ntupleSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	luts := make([][]float64, len(m.luts))
	for i, lut := range m.luts {
		luts[i] = append([]float64(nil), lut...)
	}
	return ntupleSnapshot{Size: m.size, LUTs: luts, GamesTrained: m.gamesTrained}
}

func (m *NTupleModel) importSnapshot(snapshot ntupleSnapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snapshot.Size != m.size || len(snapshot.LUTs) != len(m.luts) {
		return false
	}
	for i := range m.luts {
		if len(snapshot.LUTs[i]) != len(m.luts[i]) {
			return false
		}
	}
	for i := range m.luts {
		copy(m.luts[i], snapshot.LUTs[i])
	}
	m.gamesTrained = snapshot.GamesTrained
	m.generation.Add(1)
	return true
}
