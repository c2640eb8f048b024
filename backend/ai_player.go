package main

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type AIPlayer struct {
	moveMutex  sync.Mutex
	workerDone chan struct{}
	thinking   atomic.Bool
	moveReady  atomic.Bool
	stopSignal atomic.Bool
	readyMove  Move
	variant    string
}

func NewAIPlayer(variant string) *AIPlayer {
	if !knownVariant(variant) {
		variant = VariantPositional
	}
	return &AIPlayer{variant: variant}
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) Variant() string {
	return a.variant
}

func (a *AIPlayer) ChooseMove(state GameState, rules Rules) Move {
	config := GetConfig()
	stats := &SearchStats{Start: time.Now()}
	settings := AIScoreSettings{
		BoardSize: state.Board.Size(),
		Player:    state.ToMove,
		Model:     ModelFor(a.variant, state.Board.Size()),
		Cache:     SharedSearchCache(),
		Config:    config,
		Stats:     stats,
	}
	scores := ScoreBoard(state, rules, settings)
	bestMove, ok := bestMoveFromScores(scores, state, rules, settings.BoardSize)
	if config.AiLogSearchStats {
		logSearchStats("choose", stats, settings)
	}
	if !ok {
		return PassMove()
	}
	bestMove.Depth = stats.SearchDepth
	return bestMove
}

func (a *AIPlayer) StartThinking(state GameState, rules Rules) {
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)
	a.stopSignal.Store(false)

	stateCopy := state.Clone()
	rulesCopy := rules
	done := make(chan struct{})
	a.workerDone = done
	config := GetConfig()
	go func() {
		defer close(done)
		stats := &SearchStats{Start: time.Now()}
		settings := AIScoreSettings{
			BoardSize:  stateCopy.Board.Size(),
			Player:     stateCopy.ToMove,
			Model:      ModelFor(a.variant, stateCopy.Board.Size()),
			Cache:      SharedSearchCache(),
			Config:     config,
			ShouldStop: func() bool { return a.stopSignal.Load() },
			Stats:      stats,
		}
		scores := ScoreBoard(stateCopy, rulesCopy, settings)
		if a.stopSignal.Load() {
			a.moveReady.Store(false)
			a.thinking.Store(false)
			return
		}
		bestMove, ok := bestMoveFromScores(scores, stateCopy, rulesCopy, settings.BoardSize)
		if config.AiLogSearchStats {
			logSearchStats("think", stats, settings)
		}
		a.moveMutex.Lock()
		if ok {
			bestMove.Depth = stats.SearchDepth
			a.readyMove = bestMove
		} else {
			a.readyMove = PassMove()
		}
		a.moveMutex.Unlock()
		a.moveReady.Store(true)
		a.thinking.Store(false)
	}()
}

func (a *AIPlayer) StopThinking() {
	a.stopSignal.Store(true)
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

func (a *AIPlayer) TakeMove() Move {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.moveReady.Store(false)
	return a.readyMove
}

func (a *AIPlayer) ResetForConfigChange() {
	a.stopSignal.Store(true)
	a.moveReady.Store(false)
	a.stopSignal.Store(false)
}

// bestMoveFromScores picks the best scored legal move for the side to move.
// Black maximizes, White minimizes. Ties keep the earliest cell in board
// order, which makes repeated searches of the same position deterministic.
func bestMoveFromScores(scores []float64, state GameState, rules Rules, size int) (Move, bool) {
	maximizing := state.ToMove == PlayerBlack
	bestScore := math.Inf(1)
	if maximizing {
		bestScore = math.Inf(-1)
	}
	bestMove := Move{}
	foundScored := false
	fallbackMove := Move{}
	foundFallback := false
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			move := Move{X: x, Y: y}
			if ok, _ := rules.IsLegal(state, move, state.ToMove); !ok {
				continue
			}
			if !foundFallback {
				fallbackMove = move
				foundFallback = true
			}
			score := scores[y*size+x]
			if score == illegalScore {
				continue
			}
			foundScored = true
			if maximizing && score > bestScore {
				bestScore = score
				bestMove = move
			}
			if !maximizing && score < bestScore {
				bestScore = score
				bestMove = move
			}
		}
	}
	if !foundScored {
		if foundFallback {
			return fallbackMove, true
		}
		return Move{}, false
	}
	return bestMove, true
}

func logSearchStats(tag string, stats *SearchStats, settings AIScoreSettings) {
	if stats == nil {
		return
	}
	elapsed := time.Duration(0)
	if !stats.Start.IsZero() {
		elapsed = time.Since(stats.Start)
	}
	nps := 0.0
	if elapsed > 0 {
		nps = float64(stats.Nodes) / elapsed.Seconds()
	}
	ttHitRate := 0.0
	if stats.TTProbes > 0 {
		ttHitRate = float64(stats.TTHits) * 100.0 / float64(stats.TTProbes)
	}
	ttReplaceRate := 0.0
	if stats.TTStores > 0 {
		ttReplaceRate = float64(stats.TTReplacements) * 100.0 / float64(stats.TTStores)
	}
	ttCutoffRate := 0.0
	if stats.Cutoffs > 0 {
		ttCutoffRate = float64(stats.TTCutoffs) * 100.0 / float64(stats.Cutoffs)
	}
	ttSize := TranspositionSize(settings.Cache)
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Printf("[ai:%s] t=%dms depth=%d exact=%t nodes=%d leaves=%d nps=%.0f tt_size=%d tt_probe=%d tt_hit=%d tt_hit_rate=%.1f%% tt_store=%d tt_replace=%d tt_replace_rate=%.1f%% cutoffs=%d tt_cutoff=%d ab_cutoff=%d tt_cutoff_rate=%.1f%% model=%s gen=%d mem_alloc=%s mem_sys=%s\n",
		tag,
		elapsed.Milliseconds(),
		stats.SearchDepth,
		stats.Exact,
		stats.Nodes,
		stats.Leaves,
		nps,
		ttSize,
		stats.TTProbes,
		stats.TTHits,
		ttHitRate,
		stats.TTStores,
		stats.TTReplacements,
		ttReplaceRate,
		stats.Cutoffs,
		stats.TTCutoffs,
		stats.ABCutoffs,
		ttCutoffRate,
		settings.Model.Name(),
		settings.Model.Generation(),
		formatBytes(mem.Alloc),
		formatBytes(mem.Sys),
	)
}

func formatBytes(v uint64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%dB", v)
	}
	div, exp := uint64(unit), 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(v)/float64(div), "KMGTPE"[exp])
}
