package main

import (
	"fmt"
	"sync"
)

// EvalModel is a tunable position evaluator. Score is antisymmetric: for any
// board, Score(b, Black) == -Score(b, White). Learn consumes one finished
// self-play game and may change the model parameters; Generation increments
// on every parameter change so cached search scores can be invalidated.
type EvalModel interface {
	Name() string
	Score(board Board, player PlayerColor) float64
	MoveEstimate(board Board, move Move, player PlayerColor) float64
	Learn(history []PlyRecord, result GameResult)
	Generation() uint64
	GamesTrained() uint64
	Reset()
}

// PlyRecord captures the position a player faced during a training game,
// recorded before their move was applied.
type PlyRecord struct {
	Board  Board
	ToMove PlayerColor
}

type GameResult struct {
	Status     GameStatus
	DiscDiff   int
	FinalBoard Board
}

// BlackValue maps the result onto the learning target scale.
func (r GameResult) BlackValue() float64 {
	switch r.Status {
	case StatusBlackWon:
		return 1.0
	case StatusWhiteWon:
		return -1.0
	default:
		return 0.0
	}
}

// The eight symmetries of the square, as index transforms. Transform 0 is
// identity, 1..3 are quarter rotations, 4..7 add the reflections.
const boardSymmetries = 8

func transformXY(t, x, y, size int) (int, int) {
	m := size - 1
	switch t {
	case 1:
		return y, m - x
	case 2:
		return m - x, m - y
	case 3:
		return m - y, x
	case 4:
		return m - x, y
	case 5:
		return y, x
	case 6:
		return x, m - y
	case 7:
		return m - y, m - x
	default:
		return x, y
	}
}

func transformIndex(t, idx, size int) int {
	x := idx % size
	y := idx / size
	tx, ty := transformXY(t, x, y, size)
	return ty*size + tx
}

// rotationClasses groups cells into orbits under the four rotations, so the
// same weight parameter backs all four rotated placements of a cell. Returns
// the dense class id per cell and the class count.
func rotationClasses(size int) ([]int, int) {
	classOf := make([]int, size*size)
	for i := range classOf {
		classOf[i] = -1
	}
	next := 0
	for idx := range classOf {
		if classOf[idx] != -1 {
			continue
		}
		for t := 0; t < 4; t++ {
			classOf[transformIndex(t, idx, size)] = next
		}
		next++
	}
	return classOf, next
}

type modelKey struct {
	variant string
	size    int
}

type evalModelStore struct {
	mu     sync.Mutex
	models map[modelKey]EvalModel
}

var evalModels = &evalModelStore{models: make(map[modelKey]EvalModel)}

// ModelFor returns the shared evaluation model for a variant and board size,
// creating it on first use. Game play and the self-play trainer see the same
// instance, so learned weights apply to subsequent move requests immediately.
func ModelFor(variant string, size int) EvalModel {
	evalModels.mu.Lock()
	defer evalModels.mu.Unlock()
	key := modelKey{variant: variant, size: size}
	if model, ok := evalModels.models[key]; ok {
		return model
	}
	var model EvalModel
	switch variant {
	case VariantNTuple:
		model = NewNTupleModel(size, GetConfig().Training.LearningRate)
	default:
		model = NewPositionalModel(size, GetConfig().Heuristics)
	}
	evalModels.models[key] = model
	return model
}

func knownVariant(variant string) bool {
	return variant == VariantPositional || variant == VariantNTuple
}

func resolveVariant(variant string) (string, error) {
	if variant == "" {
		return VariantPositional, nil
	}
	if !knownVariant(variant) {
		return "", fmt.Errorf("unknown eval variant %q", variant)
	}
	return variant, nil
}

func parameterCount(model EvalModel) int {
	switch m := model.(type) {
	case *PositionalModel:
		return m.ParameterCount()
	case *NTupleModel:
		return m.ParameterCount()
	default:
		return 0
	}
}

// parameterSize is a human-readable estimate of the model's in-memory
// parameter footprint (float64 per parameter).
func parameterSize(model EvalModel) string {
	return formatBytes(uint64(parameterCount(model)) * 8)
}

func allModels() map[modelKey]EvalModel {
	evalModels.mu.Lock()
	defer evalModels.mu.Unlock()
	out := make(map[modelKey]EvalModel, len(evalModels.models))
	for key, model := range evalModels.models {
		out[key] = model
	}
	return out
}
