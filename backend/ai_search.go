package main

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

const illegalScore = -1e18

// winScore scales the terminal disc differential so finished games dominate
// any heuristic evaluation.
const winScore = 1000000.0

type AISearchCache struct {
	mu        sync.Mutex
	TT        *TranspositionTable
	TTSize    int
	TTBuckets int
}

var sharedSearchCache = &AISearchCache{}

func SharedSearchCache() *AISearchCache {
	return sharedSearchCache
}

func ensureTT(cache *AISearchCache, config Config) *TranspositionTable {
	if cache == nil || config.AiTtSize <= 0 {
		return nil
	}
	buckets := config.AiTtBuckets
	if !config.AiTtUseSetAssoc {
		buckets = 1
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.TT == nil || cache.TTSize != config.AiTtSize || cache.TTBuckets != buckets {
		cache.TT = NewTranspositionTable(uint64(config.AiTtSize), buckets)
		cache.TTSize = config.AiTtSize
		cache.TTBuckets = buckets
	}
	return cache.TT
}

func TranspositionSize(cache *AISearchCache) int {
	if cache == nil {
		return 0
	}
	cache.mu.Lock()
	tt := cache.TT
	cache.mu.Unlock()
	if tt == nil {
		return 0
	}
	return tt.Count()
}

func FlushGlobalCaches() {
	sharedSearchCache.mu.Lock()
	tt := sharedSearchCache.TT
	sharedSearchCache.mu.Unlock()
	if tt != nil {
		tt.Clear()
	}
}

type SearchStats struct {
	Start          time.Time
	Nodes          int
	Leaves         int
	TTProbes       int
	TTHits         int
	TTStores       int
	TTReplacements int
	Cutoffs        int
	TTCutoffs      int
	ABCutoffs      int
	SearchDepth    int
	Exact          bool
}

type AIScoreSettings struct {
	Depth      int
	BoardSize  int
	Player     PlayerColor
	Model      EvalModel
	Cache      *AISearchCache
	Config     Config
	ShouldStop func() bool
	Stats      *SearchStats
}

type minimaxContext struct {
	rules    Rules
	settings AIScoreSettings
	tt       *TranspositionTable
	modelGen uint64
}

// chooseSearchDepth switches to exact endgame solving when few empties
// remain; otherwise the configured midgame depth applies.
func chooseSearchDepth(state GameState, config Config) (depth int, exact bool) {
	empty := state.Board.CountEmpty()
	if empty <= config.AiExactEmptyThreshold {
		return empty, true
	}
	return config.AiDepth, false
}

// ScoreBoard searches every legal move for the side to move and returns a
// size*size grid of scores from Black's perspective; cells without a legal
// move hold illegalScore.
func ScoreBoard(state GameState, rules Rules, settings AIScoreSettings) []float64 {
	size := settings.BoardSize
	scores := make([]float64, size*size)
	for i := range scores {
		scores[i] = illegalScore
	}
	if settings.Model == nil {
		settings.Model = ModelFor(VariantPositional, size)
	}
	depth, exact := settings.Depth, false
	if depth <= 0 {
		depth, exact = chooseSearchDepth(state, settings.Config)
	}
	if settings.Stats != nil {
		settings.Stats.SearchDepth = depth
		settings.Stats.Exact = exact
	}
	ctx := minimaxContext{
		rules:    rules,
		settings: settings,
		tt:       ensureTT(settings.Cache, settings.Config),
		modelGen: settings.Model.Generation(),
	}
	moves := rules.LegalMoves(state.Board, state.ToMove)
	moves = orderCandidateMoves(state, ctx, moves, 0)
	for _, move := range moves {
		if settings.ShouldStop != nil && settings.ShouldStop() {
			return scores
		}
		child := state.Clone()
		rules.ApplyLegalMove(&child, move)
		scores[move.Y*size+move.X] = minimax(ctx, child, depth-1, math.Inf(-1), math.Inf(1))
	}
	return scores
}

// minimax returns the negamax-free, Black-perspective score of the position:
// Black maximizes, White minimizes, exactly as the root scoring expects.
func minimax(ctx minimaxContext, state GameState, depth int, alpha, beta float64) float64 {
	stats := ctx.settings.Stats
	if stats != nil {
		stats.Nodes++
	}
	if state.PassCount >= 2 || state.Board.Full() {
		return float64(ctx.rules.DiscDifferential(state.Board)) * winScore
	}
	if depth <= 0 {
		if stats != nil {
			stats.Leaves++
		}
		return ctx.settings.Model.Score(state.Board, PlayerBlack)
	}
	if ctx.settings.ShouldStop != nil && ctx.settings.ShouldStop() {
		return ctx.settings.Model.Score(state.Board, PlayerBlack)
	}

	var ttBest Move
	haveTTBest := false
	if ctx.tt != nil {
		if stats != nil {
			stats.TTProbes++
		}
		if entry, ok := ctx.tt.Probe(state.Hash, ctx.modelGen); ok {
			if stats != nil {
				stats.TTHits++
			}
			if entry.Depth >= depth {
				switch entry.Flag {
				case TTExact:
					if stats != nil {
						stats.TTCutoffs++
					}
					return entry.Score
				case TTLower:
					if entry.Score > alpha {
						alpha = entry.Score
					}
				case TTUpper:
					if entry.Score < beta {
						beta = entry.Score
					}
				}
				if alpha >= beta {
					if stats != nil {
						stats.Cutoffs++
						stats.TTCutoffs++
					}
					return entry.Score
				}
			}
			ttBest = entry.BestMove
			haveTTBest = !ttBest.IsPass() && ttBest.IsValid(state.Board.Size())
		}
	}

	moves := ctx.rules.LegalMoves(state.Board, state.ToMove)
	if len(moves) == 0 {
		// Forced pass burns one depth unit.
		child := state.Clone()
		ctx.rules.ApplyLegalMove(&child, PassMove())
		return minimax(ctx, child, depth-1, alpha, beta)
	}
	moves = orderCandidateMoves(state, ctx, moves, depth)
	if haveTTBest {
		promoteMove(moves, ttBest)
	}

	maximizing := state.ToMove == PlayerBlack
	origAlpha := alpha
	origBeta := beta
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	bestMove := moves[0]
	for _, move := range moves {
		child := state.Clone()
		ctx.rules.ApplyLegalMove(&child, move)
		score := minimax(ctx, child, depth-1, alpha, beta)
		if maximizing {
			if score > best {
				best = score
				bestMove = move
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if score < best {
				best = score
				bestMove = move
			}
			if best < beta {
				beta = best
			}
		}
		if alpha >= beta {
			if stats != nil {
				stats.Cutoffs++
				stats.ABCutoffs++
			}
			break
		}
	}

	if ctx.tt != nil {
		flag := TTExact
		if best <= origAlpha {
			flag = TTUpper
		} else if best >= origBeta {
			flag = TTLower
		}
		replaced, _ := ctx.tt.Store(state.Hash, ctx.modelGen, depth, best, flag, bestMove)
		if stats != nil {
			stats.TTStores++
			if replaced {
				stats.TTReplacements++
			}
		}
	}
	return best
}

// orderCandidateMoves sorts by the model's cheap static estimate for the
// mover, best first. The sort is stable so equal estimates keep board order,
// which keeps move choice deterministic.
func orderCandidateMoves(state GameState, ctx minimaxContext, moves []Move, depth int) []Move {
	if len(moves) <= 1 {
		return moves
	}
	model := ctx.settings.Model
	estimates := make([]float64, len(moves))
	for i, move := range moves {
		estimates[i] = model.MoveEstimate(state.Board, move, state.ToMove)
	}
	indices := make([]int, len(moves))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return estimates[indices[a]] > estimates[indices[b]]
	})
	ordered := make([]Move, len(moves))
	for i, idx := range indices {
		ordered[i] = moves[idx]
	}
	limit := ctx.settings.Config.AiMaxCandidates
	if depth > 0 && limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

func promoteMove(moves []Move, target Move) {
	for i, move := range moves {
		if move.Equals(target) {
			copy(moves[1:i+1], moves[:i])
			moves[0] = target
			return
		}
	}
}

func formatMoves(moves []Move) string {
	parts := make([]string, 0, len(moves))
	for _, move := range moves {
		if move.IsPass() {
			parts = append(parts, "pass")
			continue
		}
		parts = append(parts, fmt.Sprintf("(%d,%d)", move.X, move.Y))
	}
	return strings.Join(parts, " ")
}
