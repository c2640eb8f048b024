package main

import (
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type TrainingSnapshot struct {
	Running      bool    `json:"running"`
	Variant      string  `json:"variant"`
	GamesPlayed  int     `json:"games_played"`
	BlackWins    int     `json:"black_wins"`
	WhiteWins    int     `json:"white_wins"`
	Draws        int     `json:"draws"`
	GamesPerSec  float64 `json:"games_per_sec"`
	Generation   uint64  `json:"generation"`
	GamesTrained uint64  `json:"games_trained"`
	StartedAt    string  `json:"started_at"`
	UpdatedAt    string  `json:"updated_at"`
	Message      string  `json:"message"`
}

type ModelUpdate struct {
	Variant       string `json:"variant"`
	Generation    uint64 `json:"generation"`
	GamesTrained  uint64 `json:"games_trained"`
	ParameterSize string `json:"parameter_size"`
}

// Trainer runs the self-play loop in-process. The loop is cooperative: stop
// requests are polled between games so the game in flight always finishes
// and contributes its learning update before the loop winds down.
type Trainer struct {
	mu            sync.Mutex
	running       atomic.Bool
	stopRequested atomic.Bool
	done          chan struct{}

	cfg       TrainingConfig
	boardSize int
	rng       *rand.Rand

	snapshotSink func(TrainingSnapshot)
	modelSink    func(ModelUpdate)

	gamesPlayed int
	blackWins   int
	whiteWins   int
	draws       int
	startedAt   time.Time
	lastMessage string
}

func NewTrainer(boardSize int, snapshotSink func(TrainingSnapshot), modelSink func(ModelUpdate)) *Trainer {
	return &Trainer{
		boardSize:    boardSize,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		snapshotSink: snapshotSink,
		modelSink:    modelSink,
	}
}

func (t *Trainer) Start(cfg TrainingConfig) error {
	variant, err := resolveVariant(cfg.Variant)
	if err != nil {
		return err
	}
	cfg.Variant = variant
	if cfg.SearchDepth <= 0 {
		cfg.SearchDepth = 2
	}
	if cfg.Epsilon < 0 || cfg.Epsilon > 1 {
		cfg.Epsilon = 0.15
	}
	if cfg.ExploreTopK <= 0 {
		cfg.ExploreTopK = 3
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 25
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running.Load() {
		return fmt.Errorf("training already running")
	}
	t.cfg = cfg
	t.gamesPlayed = 0
	t.blackWins = 0
	t.whiteWins = 0
	t.draws = 0
	t.startedAt = time.Now()
	t.lastMessage = "training running"
	t.stopRequested.Store(false)
	t.running.Store(true)
	done := make(chan struct{})
	t.done = done
	go t.run(done)
	log.Printf("[ai:train] started variant=%s depth=%d epsilon=%.2f", cfg.Variant, cfg.SearchDepth, cfg.Epsilon)
	return nil
}

// Stop requests a cooperative stop and blocks until the loop drains; the
// in-flight game completes first.
func (t *Trainer) Stop() error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if !t.running.Load() || done == nil {
		return fmt.Errorf("no running training job")
	}
	t.stopRequested.Store(true)
	<-done
	return nil
}

func (t *Trainer) Running() bool {
	return t.running.Load()
}

func (t *Trainer) Status() TrainingSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Trainer) snapshotLocked() TrainingSnapshot {
	variant := t.cfg.Variant
	if variant == "" {
		variant = VariantPositional
	}
	model := ModelFor(variant, t.boardSize)
	elapsed := time.Since(t.startedAt).Seconds()
	gamesPerSec := 0.0
	if t.gamesPlayed > 0 && elapsed > 0 {
		gamesPerSec = float64(t.gamesPlayed) / elapsed
	}
	startedAt := ""
	if !t.startedAt.IsZero() {
		startedAt = t.startedAt.UTC().Format(time.RFC3339)
	}
	return TrainingSnapshot{
		Running:      t.running.Load(),
		Variant:      model.Name(),
		GamesPlayed:  t.gamesPlayed,
		BlackWins:    t.blackWins,
		WhiteWins:    t.whiteWins,
		Draws:        t.draws,
		GamesPerSec:  gamesPerSec,
		Generation:   model.Generation(),
		GamesTrained: model.GamesTrained(),
		StartedAt:    startedAt,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
		Message:      t.lastMessage,
	}
}

func (t *Trainer) run(done chan struct{}) {
	defer close(done)
	defer t.running.Store(false)

	cfg := t.cfg
	model := ModelFor(cfg.Variant, t.boardSize)
	settings := GameSettings{BoardSize: t.boardSize, BlackStarts: true}
	rules := NewRules(settings)

	var archive *GameArchive
	if cfg.ArchiveDir != "" {
		var err error
		archive, err = NewGameArchive(cfg.ArchiveDir)
		if err != nil {
			log.Printf("[ai:train] archive disabled: %v", err)
			archive = nil
		}
	}

	for {
		if t.stopRequested.Load() {
			break
		}
		if cfg.MaxGames > 0 && t.gamesPlayed >= cfg.MaxGames {
			break
		}
		gameStart := time.Now()
		history, result, plies := t.playTrainingGame(model, rules, settings)
		model.Learn(history, result)

		t.mu.Lock()
		t.gamesPlayed++
		switch result.Status {
		case StatusBlackWon:
			t.blackWins++
		case StatusWhiteWon:
			t.whiteWins++
		default:
			t.draws++
		}
		games := t.gamesPlayed
		t.mu.Unlock()

		if archive != nil {
			archive.Record(TrainingGameRow{
				GameID:     fmt.Sprintf("g%06d", games),
				Variant:    model.Name(),
				Winner:     int32(winnerFromStatus(result.Status)),
				DiscDiff:   int32(result.DiscDiff),
				Plies:      int32(plies),
				DurationMs: time.Since(gameStart).Milliseconds(),
				Generation: int64(model.Generation()),
				Source:     "selfplay",
			})
		}

		if games%cfg.SnapshotEvery == 0 {
			t.emitSnapshot()
			t.emitModelUpdate(model)
		}
		if cfg.AutosaveEvery > 0 && games%cfg.AutosaveEvery == 0 {
			persistModels(GetConfig())
		}
		// Long runs must not starve the serving goroutines.
		runtime.Gosched()
	}

	t.mu.Lock()
	t.lastMessage = "training stopped"
	t.mu.Unlock()
	t.emitSnapshot()
	t.emitModelUpdate(model)
	persistModels(GetConfig())
	if archive != nil {
		if path, rows, err := archive.Finalize(); err != nil {
			log.Printf("[ai:train] archive finalize failed: %v", err)
		} else if rows > 0 {
			log.Printf("[ai:train] archived %d games to %s", rows, path)
		}
	}
	log.Printf("[ai:train] stopped after %d games", t.gamesPlayed)
}

// playTrainingGame plays one self-play game with the shallow training search
// and epsilon-greedy exploration, recording each position faced before the
// move was chosen.
func (t *Trainer) playTrainingGame(model EvalModel, rules Rules, settings GameSettings) ([]PlyRecord, GameResult, int) {
	state := DefaultGameState(settings)
	state.Status = StatusRunning
	history := make([]PlyRecord, 0, t.boardSize*t.boardSize)
	plies := 0
	for !rules.Terminal(state) {
		moves := rules.LegalMoves(state.Board, state.ToMove)
		history = append(history, PlyRecord{Board: state.Board.Clone(), ToMove: state.ToMove})
		var move Move
		if len(moves) == 0 {
			move = PassMove()
		} else {
			move = t.selectTrainingMove(state, rules, model, moves)
		}
		rules.ApplyLegalMove(&state, move)
		plies++
	}
	result := GameResult{
		Status:     rules.Result(state.Board),
		DiscDiff:   rules.DiscDifferential(state.Board),
		FinalBoard: state.Board.Clone(),
	}
	return history, result, plies
}

func (t *Trainer) selectTrainingMove(state GameState, rules Rules, model EvalModel, moves []Move) Move {
	t.mu.Lock()
	explore := t.rng.Float64() < t.cfg.Epsilon
	t.mu.Unlock()
	if explore {
		return t.exploreMove(state, model, moves)
	}
	settings := AIScoreSettings{
		Depth:     t.cfg.SearchDepth,
		BoardSize: t.boardSize,
		Player:    state.ToMove,
		Model:     model,
		Cache:     SharedSearchCache(),
		Config:    GetConfig(),
	}
	scores := ScoreBoard(state, rules, settings)
	if best, ok := bestMoveFromScores(scores, state, rules, t.boardSize); ok {
		return best
	}
	return moves[0]
}

// exploreMove picks uniformly among the top-k moves by static estimate.
func (t *Trainer) exploreMove(state GameState, model EvalModel, moves []Move) Move {
	ranked := append([]Move(nil), moves...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return model.MoveEstimate(state.Board, ranked[i], state.ToMove) >
			model.MoveEstimate(state.Board, ranked[j], state.ToMove)
	})
	k := t.cfg.ExploreTopK
	if k > len(ranked) {
		k = len(ranked)
	}
	t.mu.Lock()
	pick := t.rng.Intn(k)
	t.mu.Unlock()
	return ranked[pick]
}

func (t *Trainer) emitSnapshot() {
	t.mu.Lock()
	snapshot := t.snapshotLocked()
	t.mu.Unlock()
	log.Printf("[ai:train] games=%d rate=%.1f/s wins(b/w/d)=%d/%d/%d gen=%d",
		snapshot.GamesPlayed, snapshot.GamesPerSec, snapshot.BlackWins, snapshot.WhiteWins, snapshot.Draws, snapshot.Generation)
	if t.snapshotSink != nil {
		t.snapshotSink(snapshot)
	}
}

func (t *Trainer) emitModelUpdate(model EvalModel) {
	if t.modelSink == nil {
		return
	}
	t.modelSink(ModelUpdate{
		Variant:       model.Name(),
		Generation:    model.Generation(),
		GamesTrained:  model.GamesTrained(),
		ParameterSize: parameterSize(model),
	})
}
