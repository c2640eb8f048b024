package main

import (
	"log"
	"time"
)

type Game struct {
	settings    GameSettings
	rules       Rules
	state       GameState
	history     MoveHistory
	blackPlayer IPlayer
	whitePlayer IPlayer
	turnStart   time.Time
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

func (g *Game) Reset(settings GameSettings) {
	g.stopAIPlayers()
	g.settings = settings
	g.rules = NewRules(settings)
	g.state.Reset(settings)
	g.history.Clear()
	g.createPlayers()
	g.turnStart = time.Now()
	g.logMatchup()
}

func (g *Game) Start() {
	if g.state.Status == StatusNotStarted {
		g.state.Status = StatusRunning
		g.turnStart = time.Now()
	}
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

func (g *Game) TryApplyMove(move Move) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, "game not running"
	}
	player := g.currentPlayer()
	isAiMove := player != nil && !player.IsHuman()
	mover := g.state.ToMove
	elapsedMs := float64(time.Since(g.turnStart).Milliseconds())

	flips, err := g.rules.ApplyMove(&g.state, move)
	if err != nil {
		g.state.LastMessage = "Illegal move: " + err.Error()
		return false, g.state.LastMessage
	}
	g.state.LastMessage = ""

	entry := HistoryEntry{
		Move:             move,
		Player:           mover,
		ElapsedMs:        elapsedMs,
		IsAi:             isAiMove,
		IsPass:           move.IsPass(),
		FlippedPositions: flips,
		FlippedCount:     len(flips),
		Depth:            move.Depth,
	}
	g.history.Push(entry)
	g.logMovePlayed(entry)

	if g.rules.Terminal(g.state) {
		g.state.Status = g.rules.Result(g.state.Board)
		g.logResult()
		return true, ""
	}
	g.turnStart = time.Now()
	return true, ""
}

func (g *Game) Tick() bool {
	if g.state.Status != StatusRunning {
		return false
	}
	player := g.currentPlayer()
	if player == nil {
		return false
	}
	if player.IsHuman() {
		human, ok := player.(*HumanPlayer)
		if !ok {
			return false
		}
		// A human with no legal placement passes automatically.
		if !g.rules.HasLegalMove(g.state.Board, g.state.ToMove) {
			applied, _ := g.TryApplyMove(PassMove())
			return applied
		}
		if human.HasPendingMove() {
			move := human.TakePendingMove()
			applied, _ := g.TryApplyMove(move)
			return applied
		}
		return false
	}
	ai, ok := player.(*AIPlayer)
	if ok {
		if ai.HasMoveReady() {
			move := ai.TakeMove()
			applied, _ := g.TryApplyMove(move)
			return applied
		}
		if !ai.IsThinking() {
			ai.StartThinking(g.state.Clone(), g.rules)
		}
		return false
	}
	move := player.ChooseMove(g.state.Clone(), g.rules)
	applied, _ := g.TryApplyMove(move)
	return applied
}

func (g *Game) SubmitHumanMove(move Move) bool {
	player := g.currentPlayer()
	if player == nil || !player.IsHuman() {
		return false
	}
	human, ok := player.(*HumanPlayer)
	if !ok {
		return false
	}
	human.SetPendingMove(move)
	return true
}

func (g *Game) CurrentPlayerIsHuman() bool {
	player := g.currentPlayer()
	return player != nil && player.IsHuman()
}

func (g *Game) currentPlayer() IPlayer {
	return g.playerForColor(g.state.ToMove)
}

func (g *Game) playerForColor(color PlayerColor) IPlayer {
	if color == PlayerBlack {
		return g.blackPlayer
	}
	return g.whitePlayer
}

func (g *Game) createPlayers() {
	if g.settings.BlackType == PlayerHuman {
		g.blackPlayer = NewHumanPlayer()
	} else {
		g.blackPlayer = NewAIPlayer(g.settings.BlackVariant)
	}
	if g.settings.WhiteType == PlayerHuman {
		g.whitePlayer = NewHumanPlayer()
	} else {
		g.whitePlayer = NewAIPlayer(g.settings.WhiteVariant)
	}
}

func (g *Game) AiThinking() bool {
	player := g.currentPlayer()
	ai, ok := player.(*AIPlayer)
	if ok {
		return ai.IsThinking()
	}
	return false
}

func (g *Game) ResetForConfigChange() {
	if aiBlack, ok := g.blackPlayer.(*AIPlayer); ok {
		aiBlack.ResetForConfigChange()
	}
	if aiWhite, ok := g.whitePlayer.(*AIPlayer); ok {
		aiWhite.ResetForConfigChange()
	}
}

func (g *Game) stopAIPlayers() {
	if aiBlack, ok := g.blackPlayer.(*AIPlayer); ok {
		aiBlack.StopThinking()
	}
	if aiWhite, ok := g.whitePlayer.(*AIPlayer); ok {
		aiWhite.StopThinking()
	}
}

func (g *Game) logMatchup() {
	label := func(t PlayerType, variant string) string {
		if t == PlayerAI {
			return "AI/" + variant
		}
		return "Human"
	}
	log.Printf("[game] Black (%s) vs White (%s)",
		label(g.settings.BlackType, g.settings.BlackVariant),
		label(g.settings.WhiteType, g.settings.WhiteVariant))
}

func (g *Game) logMovePlayed(entry HistoryEntry) {
	if entry.IsPass {
		log.Printf("[game] %s passes", entry.Player.String())
		return
	}
	log.Printf("[game] %s plays (%d,%d) flips=%d t=%.0fms",
		entry.Player.String(), entry.Move.X, entry.Move.Y, entry.FlippedCount, entry.ElapsedMs)
}

func (g *Game) logResult() {
	black := g.state.Board.CountCell(CellBlack)
	white := g.state.Board.CountCell(CellWhite)
	log.Printf("[game] finished %s black=%d white=%d", statusToString(g.state.Status), black, white)
}

func (p PlayerColor) String() string {
	if p == PlayerBlack {
		return "Black"
	}
	return "White"
}
