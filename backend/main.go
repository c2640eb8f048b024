package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

type StatusResponse struct {
	Settings        GameSettingsDTO   `json:"settings"`
	Config          Config            `json:"config"`
	Board           [][]int           `json:"board"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	BoardSize       int               `json:"board_size"`
	Status          string            `json:"status"`
	BlackCount      int               `json:"black_count"`
	WhiteCount      int               `json:"white_count"`
	PassCount       int               `json:"pass_count"`
	LegalMoves      []Move            `json:"legal_moves"`
	AiThinking      bool              `json:"ai_thinking"`
	History         []historyEntryDTO `json:"history"`
	LastMessage     string            `json:"last_message"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type GameSettingsDTO struct {
	Mode         string `json:"mode"`
	HumanPlayer  int    `json:"human_player"`
	BoardSize    int    `json:"board_size"`
	BlackVariant string `json:"black_variant"`
	WhiteVariant string `json:"white_variant"`
}

type apiMove struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Pass bool `json:"pass"`
}

type historyEntryDTO struct {
	X                int          `json:"x"`
	Y                int          `json:"y"`
	Player           int          `json:"player"`
	ElapsedMs        float64      `json:"elapsed_ms"`
	IsAi             bool         `json:"is_ai"`
	IsPass           bool         `json:"is_pass"`
	FlippedCount     int          `json:"flipped_count"`
	FlippedPositions []Move       `json:"flipped_positions"`
	Changes          []cellChange `json:"changes"`
	Depth            int          `json:"depth"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	History         []historyEntryDTO `json:"history"`
	Board           [][]int           `json:"board"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	BoardSize       int               `json:"board_size"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type cellChange struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Value int `json:"value"`
}

type settingsPayload struct {
	Settings GameSettingsDTO `json:"settings"`
	Config   Config          `json:"config"`
}

type modelInfoResponse struct {
	Variant        string `json:"variant"`
	BoardSize      int    `json:"board_size"`
	Generation     uint64 `json:"generation"`
	GamesTrained   uint64 `json:"games_trained"`
	ParameterCount int    `json:"parameter_count"`
	ParameterSize  string `json:"parameter_size"`
}

type ttCacheStatusResponse struct {
	Count         int     `json:"count"`
	Capacity      int     `json:"capacity"`
	Usage         float64 `json:"usage"`
	Full          bool    `json:"full"`
	EntryBytes    uint64  `json:"entry_bytes"`
	UsedBytes     uint64  `json:"used_bytes"`
	CapacityBytes uint64  `json:"capacity_bytes"`
}

type ttCacheEntryDTO struct {
	Hash        string  `json:"hash"`
	Hits        uint32  `json:"hits"`
	Depth       int     `json:"depth"`
	Score       float64 `json:"score"`
	Flag        string  `json:"flag"`
	BestMove    Move    `json:"best_move"`
	ModelGen    uint64  `json:"model_gen"`
	GenWritten  uint32  `json:"gen_written"`
	GenLastUsed uint32  `json:"gen_last_used"`
}

type ttCacheEntriesResponse struct {
	Items  []ttCacheEntryDTO `json:"items"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
	Total  int               `json:"total"`
}

func main() {
	var persistOnce sync.Once
	persistOnShutdown := func(reason string) {
		persistOnce.Do(func() {
			log.Printf("[backend] persisting models on %s", reason)
			persistModels(GetConfig())
		})
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("[backend] panic recovered in main: %v", recovered)
			persistOnShutdown("panic")
		}
	}()

	controller := NewGameController(DefaultGameSettings())
	loadModelPersistence(GetConfig())
	defer persistOnShutdown("exit")
	hub := NewHub()
	trainingHub := NewTrainingHub()
	trainer := NewTrainer(
		DefaultGameSettings().BoardSize,
		trainingHub.PublishProgress,
		trainingHub.PublishModelUpdate,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx.Done())
	go trainingHub.Run(ctx.Done())
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if controller.Tick() && hub.HasClients() {
					if entry, ok := controller.LatestHistoryEntry(); ok {
						hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}
					}
					hub.broadcastBoard <- boardFromController(controller)
					hub.broadcastStatus <- controllerStatus(controller)
				}
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings GameSettingsDTO `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings, err := settingsFromDTO(payload.Settings, DefaultGameSettings())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		controller.StartGame(settings)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.broadcastReset <- resetFromController(controller)
	})

	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		settings := controller.Settings()
		controller.Reset(settings)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.broadcastReset <- resetFromController(controller)
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *GameSettingsDTO `json:"settings"`
			Config   *Config          `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.Config != nil {
			configStore.Update(*payload.Config)
			controller.ResetForConfigChange()
		}
		if payload.Settings != nil {
			settings, err := settingsFromDTO(*payload.Settings, controller.Settings())
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			controller.UpdateSettings(settings, false)
		}
		hub.broadcastSettings <- settingsPayload{
			Settings: controllerSettingsDTO(controller.Settings()),
			Config:   GetConfig(),
		}
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload apiMove
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		move := NewMove(payload.X, payload.Y)
		if payload.Pass {
			move = PassMove()
		}
		applied, errMsg := controller.ApplyHumanMove(move)
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		if entry, ok := controller.LatestHistoryEntry(); ok {
			hub.broadcastHistory <- historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}}
		}
		hub.broadcastBoard <- boardFromController(controller)
		hub.broadcastStatus <- controllerStatus(controller)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/training/start", func(w http.ResponseWriter, r *http.Request) {
		cfg := GetConfig().Training
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
		}
		if err := trainer.Start(cfg); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, trainer.Status())
	})

	r.Post("/api/training/stop", func(w http.ResponseWriter, r *http.Request) {
		if err := trainer.Stop(); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, trainer.Status())
	})

	r.Get("/api/training/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, trainer.Status())
	})

	r.Get("/api/model", func(w http.ResponseWriter, r *http.Request) {
		variant, size, err := modelParams(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, modelInfo(variant, size))
	})

	r.Delete("/api/model", func(w http.ResponseWriter, r *http.Request) {
		variant, size, err := modelParams(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if trainer.Running() {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "stop training before resetting the model"})
			return
		}
		model := ModelFor(variant, size)
		model.Reset()
		persistModels(GetConfig())
		log.Printf("[ai:model] reset %s size=%d", variant, size)
		writeJSON(w, http.StatusOK, modelInfo(variant, size))
	})

	r.Get("/api/cache/tt", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ttCacheStatus())
	})
	r.Delete("/api/cache/tt", func(w http.ResponseWriter, r *http.Request) {
		FlushGlobalCaches()
		writeJSON(w, http.StatusOK, map[string]any{
			"cleared": true,
		})
	})
	r.Get("/api/cache/tt/entries", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}
		if offset < 0 {
			offset = 0
		}
		writeJSON(w, http.StatusOK, ttCacheEntries(offset, limit))
	})
	r.Delete("/api/cache/tt/entries/{hash}", func(w http.ResponseWriter, r *http.Request) {
		hashRaw := chi.URLParam(r, "hash")
		hash, err := parseTTKey(hashRaw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hash"})
			return
		}
		config := GetConfig()
		cache := SharedSearchCache()
		tt := ensureTT(cache, config)
		if tt == nil {
			writeJSON(w, http.StatusOK, map[string]any{"deleted": false, "hash": fmt.Sprintf("0x%016x", hash)})
			return
		}
		deleted := tt.DeleteByKey(hash)
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": deleted,
			"hash":    fmt.Sprintf("0x%016x", hash),
		})
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})
	r.Get("/ws/training", func(w http.ResponseWriter, r *http.Request) {
		serveTrainingWS(trainingHub, trainer, w, r)
	})

	server := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Println("backend listening on :8080")
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Printf("[backend] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[backend] server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[backend] graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[backend] forced close failed: %v", closeErr)
		}
	}

	cancel()
	if trainer.Running() {
		if err := trainer.Stop(); err != nil {
			log.Printf("[backend] trainer stop on shutdown: %v", err)
		}
	}
	persistOnShutdown("shutdown")
	if runErr != nil {
		log.Printf("[backend] exiting after server error: %v", runErr)
	}
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	status := controllerStatus(controller)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(status)})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			status := controllerStatus(controller)
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(status)})
		}
	}
}

func boardFromController(controller *GameController) boardPayload {
	state := controller.State()
	rules := NewRules(controller.Settings())
	history := controller.History()
	return boardPayload{
		Board:      boardToSlice(state.Board),
		NextPlayer: playerToInt(state.ToMove),
		Winner:     winnerFromStatus(state.Status),
		BlackCount: state.Board.CountCell(CellBlack),
		WhiteCount: state.Board.CountCell(CellWhite),
		MoveCount:  history.Size(),
		PassCount:  state.PassCount,
		LegalMoves: rules.LegalMoves(state.Board, state.ToMove),
		Status:     statusToString(state.Status),
		AiThinking: controller.AiThinking(),
		History:    historyToDTO(history),
	}
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	settings := controller.Settings()
	rules := NewRules(settings)
	return StatusResponse{
		Settings:        controllerSettingsDTO(settings),
		Config:          GetConfig(),
		Board:           boardToSlice(state.Board),
		NextPlayer:      playerToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		BoardSize:       state.Board.Size(),
		Status:          statusToString(state.Status),
		BlackCount:      state.Board.CountCell(CellBlack),
		WhiteCount:      state.Board.CountCell(CellWhite),
		PassCount:       state.PassCount,
		LegalMoves:      rules.LegalMoves(state.Board, state.ToMove),
		AiThinking:      controller.AiThinking(),
		History:         historyToDTO(controller.History()),
		LastMessage:     state.LastMessage,
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func settingsFromDTO(dto GameSettingsDTO, base GameSettings) (GameSettings, error) {
	settings := base
	switch dto.Mode {
	case "ai_vs_ai":
		settings.BlackType = PlayerAI
		settings.WhiteType = PlayerAI
	case "human_vs_human":
		settings.BlackType = PlayerHuman
		settings.WhiteType = PlayerHuman
	case "ai_vs_human":
		if dto.HumanPlayer == 2 {
			settings.BlackType = PlayerAI
			settings.WhiteType = PlayerHuman
		} else {
			settings.BlackType = PlayerHuman
			settings.WhiteType = PlayerAI
		}
	case "":
	default:
		return GameSettings{}, fmt.Errorf("unknown mode %q", dto.Mode)
	}
	if dto.BoardSize != 0 {
		if dto.BoardSize < 4 || dto.BoardSize%2 != 0 {
			return GameSettings{}, fmt.Errorf("board size must be even and at least 4")
		}
		settings.BoardSize = dto.BoardSize
	}
	if dto.BlackVariant != "" {
		variant, err := resolveVariant(dto.BlackVariant)
		if err != nil {
			return GameSettings{}, err
		}
		settings.BlackVariant = variant
	}
	if dto.WhiteVariant != "" {
		variant, err := resolveVariant(dto.WhiteVariant)
		if err != nil {
			return GameSettings{}, err
		}
		settings.WhiteVariant = variant
	}
	return settings, nil
}

func controllerSettingsDTO(settings GameSettings) GameSettingsDTO {
	mode := "ai_vs_human"
	if settings.BlackType == PlayerAI && settings.WhiteType == PlayerAI {
		mode = "ai_vs_ai"
	} else if settings.BlackType == PlayerHuman && settings.WhiteType == PlayerHuman {
		mode = "human_vs_human"
	}
	humanPlayer := 0
	if settings.BlackType == PlayerHuman && settings.WhiteType != PlayerHuman {
		humanPlayer = 1
	} else if settings.WhiteType == PlayerHuman && settings.BlackType != PlayerHuman {
		humanPlayer = 2
	} else if settings.BlackType == PlayerHuman && settings.WhiteType == PlayerHuman {
		humanPlayer = 1
	}
	return GameSettingsDTO{
		Mode:         mode,
		HumanPlayer:  humanPlayer,
		BoardSize:    settings.BoardSize,
		BlackVariant: settings.BlackVariant,
		WhiteVariant: settings.WhiteVariant,
	}
}

func modelParams(r *http.Request) (string, int, error) {
	variant, err := resolveVariant(r.URL.Query().Get("variant"))
	if err != nil {
		return "", 0, err
	}
	size := DefaultGameSettings().BoardSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 4 || parsed%2 != 0 {
			return "", 0, errors.New("invalid size")
		}
		size = parsed
	}
	return variant, size, nil
}

func modelInfo(variant string, size int) modelInfoResponse {
	model := ModelFor(variant, size)
	return modelInfoResponse{
		Variant:        model.Name(),
		BoardSize:      size,
		Generation:     model.Generation(),
		GamesTrained:   model.GamesTrained(),
		ParameterCount: parameterCount(model),
		ParameterSize:  parameterSize(model),
	}
}

func boardToSlice(board Board) [][]int {
	size := board.Size()
	rows := make([][]int, size)
	for y := 0; y < size; y++ {
		rows[y] = make([]int, size)
		for x := 0; x < size; x++ {
			cell := board.At(x, y)
			rows[y][x] = cellToInt(cell)
		}
	}
	return rows
}

func cellToInt(cell Cell) int {
	switch cell {
	case CellBlack:
		return 1
	case CellWhite:
		return 2
	default:
		return 0
	}
}

func playerToInt(player PlayerColor) int {
	if player == PlayerBlack {
		return 1
	}
	return 2
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusBlackWon:
		return 1
	case StatusWhiteWon:
		return 2
	default:
		return 0
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusNotStarted:
		return "not_started"
	case StatusBlackWon:
		return "black_won"
	case StatusWhiteWon:
		return "white_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func ttCacheStatus() ttCacheStatusResponse {
	config := GetConfig()
	cache := SharedSearchCache()
	tt := ensureTT(cache, config)
	if tt == nil {
		return ttCacheStatusResponse{}
	}
	count := tt.Count()
	capacity := tt.Capacity()
	entryBytes := uint64(unsafe.Sizeof(TTEntry{}))
	usedBytes := uint64(count) * entryBytes
	capacityBytes := uint64(capacity) * entryBytes
	usage := 0.0
	full := false
	if capacity > 0 {
		usage = float64(count) / float64(capacity)
		full = count >= capacity
	}
	return ttCacheStatusResponse{
		Count:         count,
		Capacity:      capacity,
		Usage:         usage,
		Full:          full,
		EntryBytes:    entryBytes,
		UsedBytes:     usedBytes,
		CapacityBytes: capacityBytes,
	}
}

func ttCacheEntries(offset int, limit int) ttCacheEntriesResponse {
	config := GetConfig()
	cache := SharedSearchCache()
	tt := ensureTT(cache, config)
	if tt == nil {
		return ttCacheEntriesResponse{
			Items:  []ttCacheEntryDTO{},
			Offset: offset,
			Limit:  limit,
			Total:  0,
		}
	}
	entries, total := tt.TopEntriesByHits(offset, limit)
	items := make([]ttCacheEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ttEntryToDTO(entry))
	}
	return ttCacheEntriesResponse{
		Items:  items,
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}
}

func ttEntryToDTO(entry TTEntry) ttCacheEntryDTO {
	return ttCacheEntryDTO{
		Hash:        fmt.Sprintf("0x%016x", entry.Key),
		Hits:        entry.Hits,
		Depth:       entry.Depth,
		Score:       entry.Score,
		Flag:        ttFlagString(entry.Flag),
		BestMove:    entry.BestMove,
		ModelGen:    entry.ModelGen,
		GenWritten:  entry.GenWritten,
		GenLastUsed: entry.GenLastUsed,
	}
}

func ttFlagString(flag TTFlag) string {
	switch flag {
	case TTExact:
		return "EXACT"
	case TTLower:
		return "LOWER"
	case TTUpper:
		return "UPPER"
	default:
		return "UNKNOWN"
	}
}

func parseTTKey(raw string) (uint64, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	return strconv.ParseUint(raw, 0, 64)
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		X:                entry.Move.X,
		Y:                entry.Move.Y,
		Player:           playerToInt(entry.Player),
		ElapsedMs:        entry.ElapsedMs,
		IsAi:             entry.IsAi,
		IsPass:           entry.IsPass,
		FlippedCount:     entry.FlippedCount,
		FlippedPositions: append([]Move(nil), entry.FlippedPositions...),
		Changes:          changesFromEntry(entry),
		Depth:            entry.Depth,
	}
}

// changesFromEntry lists the cells that changed value: the placed disc plus
// every flipped disc, all ending up with the mover's color.
func changesFromEntry(entry HistoryEntry) []cellChange {
	if entry.IsPass {
		return []cellChange{}
	}
	changes := []cellChange{{
		X:     entry.Move.X,
		Y:     entry.Move.Y,
		Value: playerToInt(entry.Player),
	}}
	for _, flipped := range entry.FlippedPositions {
		changes = append(changes, cellChange{
			X:     flipped.X,
			Y:     flipped.Y,
			Value: playerToInt(entry.Player),
		})
	}
	return changes
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	return resetPayload{
		History:         historyToDTO(controller.History()),
		Board:           boardToSlice(state.Board),
		NextPlayer:      playerToInt(state.ToMove),
		Winner:          winnerFromStatus(state.Status),
		Status:          statusToString(state.Status),
		BoardSize:       state.Board.Size(),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
