package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

type trainer struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	logger       *log.Logger
	mode         string
	apiAddr      string

	selfplayVariant string
	selfplayGames   int
	arenaRounds     int
	arenaTimeout    time.Duration
	eloK            float64

	statusMu  sync.RWMutex
	status    trainerStatus
	jobMu     sync.Mutex
	jobCancel context.CancelFunc
	jobDone   chan struct{}
}

type statusResponse struct {
	Status     string            `json:"status"`
	Winner     int               `json:"winner"`
	History    []json.RawMessage `json:"history"`
	BoardSize  int               `json:"board_size"`
	BlackCount int               `json:"black_count"`
	WhiteCount int               `json:"white_count"`
	Config     map[string]any    `json:"config"`
}

type trainingStatusResponse struct {
	Running     bool    `json:"running"`
	Variant     string  `json:"variant"`
	GamesPlayed int     `json:"games_played"`
	BlackWins   int     `json:"black_wins"`
	WhiteWins   int     `json:"white_wins"`
	Draws       int     `json:"draws"`
	GamesPerSec float64 `json:"games_per_sec"`
	Generation  uint64  `json:"generation"`
}

type trainerStatus struct {
	Running     bool   `json:"running"`
	Mode        string `json:"mode"`
	Phase       string `json:"phase"`
	Message     string `json:"message"`
	StartedAt   string `json:"started_at"`
	UpdatedAt   string `json:"updated_at"`
	GamesPlayed int    `json:"games_played"`
	Round       int    `json:"round"`

	SelfplayVariant  string                  `json:"selfplay_variant,omitempty"`
	SelfplayProgress *trainingStatusResponse `json:"selfplay_progress,omitempty"`
	Standings        []arenaStanding         `json:"standings,omitempty"`
}

type arenaStanding struct {
	Variant string  `json:"variant"`
	Elo     float64 `json:"elo"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Draws   int     `json:"draws"`
}

type arenaContender struct {
	Variant string
	Elo     float64
	Wins    int
	Losses  int
	Draws   int
}

func main() {
	logger, closeLog, err := buildLogger("/logs/AITrainer.log")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLog()

	baseURL := getenv("BACKEND_URL", "http://backend:8080")
	pollMs := getenvInt("POLL_INTERVAL_MS", 2000)
	mode := getenv("TRAINER_MODE", "selfplay")
	apiAddr := getenv("TRAINER_API_ADDR", ":8090")
	autostart := getenv("TRAINER_AUTOSTART_MODE", "")
	selfplayVariant := getenv("SELFPLAY_VARIANT", "positional")
	selfplayGames := getenvInt("SELFPLAY_MAX_GAMES", 0)
	arenaRounds := getenvInt("ARENA_ROUNDS", 0)
	arenaTimeoutSec := getenvInt("ARENA_GAME_TIMEOUT_SEC", 120)
	eloK := getenvFloat("ARENA_ELO_K", 20)
	if eloK <= 0 {
		eloK = 20
	}

	t := &trainer{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:         baseURL,
		pollInterval:    time.Duration(pollMs) * time.Millisecond,
		logger:          logger,
		mode:            mode,
		apiAddr:         apiAddr,
		selfplayVariant: selfplayVariant,
		selfplayGames:   selfplayGames,
		arenaRounds:     arenaRounds,
		arenaTimeout:    time.Duration(arenaTimeoutSec) * time.Second,
		eloK:            eloK,
		status: trainerStatus{
			Running:   false,
			Mode:      mode,
			Phase:     "idle",
			Message:   "service ready",
			StartedAt: time.Now().UTC().Format(time.RFC3339),
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	t.logf("AI trainer service started. backend=%s mode=%s poll_interval=%s", t.baseURL, t.mode, t.pollInterval)
	t.startStatusAPI()

	if autostart != "" {
		startMode := autostart
		if startMode == "1" || startMode == "true" || startMode == "yes" {
			startMode = mode
		}
		if err := t.startTraining(startMode); err != nil {
			t.logf("Autostart failed: %v", err)
		}
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	<-sigCtx.Done()
	_ = t.stopTraining("shutdown")
	t.logf("Trainer service stopping")
}

func (t *trainer) startStatusAPI() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trainer/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": t.getStatus().Running})
	})
	mux.HandleFunc("/api/trainer/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.getStatus())
	})
	mux.HandleFunc("/api/trainer/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var payload struct {
			Mode string `json:"mode"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mode := payload.Mode
		if mode == "" {
			mode = t.mode
		}
		if err := t.startTraining(mode); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, t.getStatus())
	})
	mux.HandleFunc("/api/trainer/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		if err := t.stopTraining("requested via api"); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, t.getStatus())
	})
	server := &http.Server{Addr: t.apiAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logf("trainer api server error: %v", err)
		}
	}()
}

func (t *trainer) getStatus() trainerStatus {
	t.statusMu.RLock()
	defer t.statusMu.RUnlock()
	return t.status
}

func (t *trainer) updateStatus(mutator func(*trainerStatus)) {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	mutator(&t.status)
	t.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (t *trainer) startTraining(mode string) error {
	t.jobMu.Lock()
	defer t.jobMu.Unlock()
	if t.jobCancel != nil {
		return fmt.Errorf("training already running")
	}
	switch mode {
	case "", "selfplay", "arena":
		if mode == "" {
			mode = t.mode
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.jobCancel = cancel
	t.jobDone = done
	t.updateStatus(func(s *trainerStatus) {
		s.Running = true
		s.Mode = mode
		s.Phase = "starting"
		s.Message = "training starting"
		s.GamesPlayed = 0
		s.Round = 0
	})
	go func() {
		defer close(done)
		if err := t.waitBackendReady(ctx); err != nil {
			t.updateStatus(func(s *trainerStatus) {
				s.Phase = "error"
				s.Message = err.Error()
			})
		} else {
			if err := t.runMode(ctx, mode); err != nil && err != context.Canceled {
				t.updateStatus(func(s *trainerStatus) {
					s.Phase = "error"
					s.Message = err.Error()
				})
			}
		}
		t.updateStatus(func(s *trainerStatus) {
			s.Running = false
			if s.Phase != "error" {
				s.Phase = "idle"
				s.Message = "service ready"
			}
		})
		t.jobMu.Lock()
		t.jobCancel = nil
		t.jobDone = nil
		t.jobMu.Unlock()
	}()
	return nil
}

func (t *trainer) stopTraining(reason string) error {
	t.jobMu.Lock()
	cancel := t.jobCancel
	done := t.jobDone
	t.jobMu.Unlock()
	if cancel == nil {
		return fmt.Errorf("no running training job")
	}
	t.logf("Stopping training: %s", reason)
	cancel()
	if done != nil {
		<-done
	}
	t.updateStatus(func(s *trainerStatus) {
		s.Running = false
		s.Phase = "idle"
		s.Message = "service ready"
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func buildLogger(path string) (*log.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(io.MultiWriter(os.Stdout, f), "", 0)
	return logger, func() { _ = f.Close() }, nil
}

func (t *trainer) runMode(ctx context.Context, mode string) error {
	if strings.EqualFold(mode, "arena") {
		return t.runArena(ctx)
	}
	return t.runSelfplay(ctx)
}

// runSelfplay drives the backend's in-process self-play loop over its
// training API and mirrors the progress in the trainer status.
func (t *trainer) runSelfplay(ctx context.Context) error {
	t.updateStatus(func(s *trainerStatus) {
		s.Phase = "running"
		s.Message = "selfplay training running"
		s.SelfplayVariant = t.selfplayVariant
		s.Standings = nil
	})
	payload := map[string]any{
		"variant": t.selfplayVariant,
	}
	if t.selfplayGames > 0 {
		payload["max_games"] = t.selfplayGames
	}
	if err := t.postJSON("/api/training/start", payload, nil); err != nil {
		return err
	}
	t.logf("Selfplay started. variant=%s max_games=%d", t.selfplayVariant, t.selfplayGames)

	defer func() {
		_ = t.postJSON("/api/training/stop", map[string]any{}, nil)
	}()

	lastLogged := -1
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var progress trainingStatusResponse
		if err := t.getJSON("/api/training/status", &progress); err != nil {
			return err
		}
		t.updateStatus(func(s *trainerStatus) {
			s.GamesPlayed = progress.GamesPlayed
			s.SelfplayProgress = &progress
		})
		if progress.GamesPlayed != lastLogged {
			t.logf("Selfplay games=%d rate=%.1f/s wins(b/w/d)=%d/%d/%d gen=%d",
				progress.GamesPlayed, progress.GamesPerSec, progress.BlackWins, progress.WhiteWins, progress.Draws, progress.Generation)
			lastLogged = progress.GamesPlayed
		}
		if !progress.Running {
			t.logf("Selfplay finished after %d games.", progress.GamesPlayed)
			return nil
		}
		if !sleepWithContext(ctx, t.pollInterval) {
			return ctx.Err()
		}
	}
}

// runArena pits the positional model against the n-tuple model in AI vs AI
// games, alternating colors each round, and tracks Elo for both.
func (t *trainer) runArena(ctx context.Context) error {
	positional := &arenaContender{Variant: "positional", Elo: 1500}
	ntuple := &arenaContender{Variant: "ntuple", Elo: 1500}
	t.updateStatus(func(s *trainerStatus) {
		s.Phase = "running"
		s.Message = "arena running"
		s.SelfplayVariant = ""
		s.SelfplayProgress = nil
		s.Standings = toStandings(positional, ntuple)
	})

	games := 0
	round := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if t.arenaRounds > 0 && round >= t.arenaRounds {
			t.logf("Arena finished after %d rounds.", round)
			return nil
		}
		round++
		for _, positionalBlack := range []bool{true, false} {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			black, white := positional, ntuple
			if !positionalBlack {
				black, white = ntuple, positional
			}
			status, err := t.playArenaGame(ctx, black.Variant, white.Variant)
			if err != nil {
				return err
			}
			games++
			result := resultFor(black, white, status.Winner)
			updateElo(black, white, result, t.eloK)
			t.updateStatus(func(s *trainerStatus) {
				s.GamesPlayed = games
				s.Round = round
				s.Standings = toStandings(positional, ntuple)
			})
			t.logf("Arena round %d game %d %s(B) vs %s(W) winner=%d discs=%d/%d elo=%.0f/%.0f",
				round, games, black.Variant, white.Variant, status.Winner,
				status.BlackCount, status.WhiteCount, positional.Elo, ntuple.Elo)
		}
	}
}

func (t *trainer) playArenaGame(ctx context.Context, blackVariant, whiteVariant string) (statusResponse, error) {
	if err := t.postJSON("/api/start", map[string]any{
		"settings": map[string]any{
			"mode":          "ai_vs_ai",
			"black_variant": blackVariant,
			"white_variant": whiteVariant,
		},
	}, nil); err != nil {
		return statusResponse{}, err
	}
	deadline := time.Now().Add(t.arenaTimeout)
	for {
		if ctx.Err() != nil {
			return statusResponse{}, ctx.Err()
		}
		status, err := t.fetchStatus()
		if err != nil {
			return statusResponse{}, err
		}
		if status.Status != "running" && status.Status != "not_started" {
			return status, nil
		}
		if t.arenaTimeout > 0 && time.Now().After(deadline) {
			_ = t.stopGame()
			return statusResponse{}, fmt.Errorf("arena game timeout after %s", t.arenaTimeout)
		}
		if !sleepWithContext(ctx, t.pollInterval) {
			return statusResponse{}, ctx.Err()
		}
	}
}

// resultFor scores a finished game from black's side: 1 win, 0 loss, 0.5 draw,
// and tallies the W/L/D counters on both contenders.
func resultFor(black, white *arenaContender, winner int) float64 {
	switch winner {
	case 1:
		black.Wins++
		white.Losses++
		return 1.0
	case 2:
		black.Losses++
		white.Wins++
		return 0.0
	default:
		black.Draws++
		white.Draws++
		return 0.5
	}
}

func toStandings(contenders ...*arenaContender) []arenaStanding {
	out := make([]arenaStanding, 0, len(contenders))
	for _, c := range contenders {
		out = append(out, arenaStanding{
			Variant: c.Variant,
			Elo:     c.Elo,
			Wins:    c.Wins,
			Losses:  c.Losses,
			Draws:   c.Draws,
		})
	}
	return out
}

func updateElo(a *arenaContender, b *arenaContender, resultForA float64, k float64) {
	expA := 1.0 / (1.0 + math.Pow(10, (b.Elo-a.Elo)/400.0))
	expB := 1.0 / (1.0 + math.Pow(10, (a.Elo-b.Elo)/400.0))
	a.Elo += k * (resultForA - expA)
	b.Elo += k * ((1.0 - resultForA) - expB)
}

func (t *trainer) fetchStatus() (statusResponse, error) {
	var status statusResponse
	if err := t.getJSON("/api/status", &status); err != nil {
		return statusResponse{}, err
	}
	return status, nil
}

func (t *trainer) stopGame() error {
	return t.postJSON("/api/stop", map[string]any{}, nil)
}

func (t *trainer) waitBackendReady(ctx context.Context) error {
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := t.ping(); err == nil {
			return nil
		}
		if !sleepWithContext(ctx, 1*time.Second) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("timeout after 60s")
}

func (t *trainer) ping() error {
	req, err := http.NewRequest(http.MethodGet, t.baseURL+"/api/ping", nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping status %d", resp.StatusCode)
	}
	return nil
}

func (t *trainer) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s -> %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t *trainer) postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s -> %d: %s", path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t *trainer) logf(format string, args ...any) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	t.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, args...))
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed float64
	if _, err := fmt.Sscanf(value, "%f", &parsed); err != nil {
		return fallback
	}
	return parsed
}
