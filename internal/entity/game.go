package entity

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the orchestrator state.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhasePlayer1Thinking Phase = "player1_thinking"
	PhasePlayer2Thinking Phase = "player2_thinking"
	PhaseSimulating      Phase = "simulating"
	PhaseGameOver        Phase = "game_over"
)

// Outcome is the decided result of a match.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomePlayer1 Outcome = "1"
	OutcomePlayer2 Outcome = "2"
	OutcomeDraw    Outcome = "-"
)

var ErrInvalidGrid = errors.New("invalid grid")

// IsThinking reports whether the phase waits for a move.
func (that Phase) IsThinking() bool {
	return that == PhasePlayer1Thinking || that == PhasePlayer2Thinking
}

// ThinkingPhase returns the phase in which player is asked for a move.
func ThinkingPhase(player Player) Phase {
	if player == Player2 {
		return PhasePlayer2Thinking
	}
	return PhasePlayer1Thinking
}

// Score is the live cell count per player. It is always derived from a grid.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// GameLog keeps the most recent human readable events, oldest first.
type GameLog struct {
	limit   int
	entries []string
}

func NewGameLog(limit int) *GameLog {
	if limit <= 0 {
		limit = 1
	}
	return &GameLog{limit: limit}
}

// Add appends a message tagged with the 1-based turn number, dropping the oldest
// entries once the limit is reached.
func (that *GameLog) Add(turn int, message string) {
	that.entries = append(that.entries, fmt.Sprintf("[Turn %d] %s", turn+1, message))
	if over := len(that.entries) - that.limit; over > 0 {
		that.entries = append([]string(nil), that.entries[over:]...)
	}
}

func (that *GameLog) Entries() []string {
	return append([]string(nil), that.entries...)
}

func (that *GameLog) Clear() {
	that.entries = nil
}

// Snapshot is the read-only view of a game published after every transition.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	Generation   uint64    `json:"generation"`
	Version      uint64    `json:"version"`
	Phase        Phase     `json:"phase"`
	ActivePlayer Player    `json:"active_player"`
	Turn         int       `json:"turn"`
	MaxTurns     int       `json:"max_turns"`
	SimStep      int       `json:"sim_step"`
	StepsPerTurn int       `json:"steps_per_turn"`
	Score        Score     `json:"score"`
	Winner       Outcome   `json:"winner"`
	Log          []string  `json:"log"`
	Grid         Grid      `json:"grid"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (that Snapshot) IsFinished() bool {
	return that.Phase == PhaseGameOver
}

// MatchResult is stored once a match reaches game over.
type MatchResult struct {
	SessionID  string    `json:"session_id"`
	Winner     Outcome   `json:"winner"`
	Score      Score     `json:"score"`
	Turns      int       `json:"turns"`
	FinishedAt time.Time `json:"finished_at"`
}
