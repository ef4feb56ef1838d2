package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
	"github.com/rocketscienceinc/lifebattle-backend/internal/lifegame"
)

const tracerName = "github.com/rocketscienceinc/lifebattle-backend/internal/usecase"

type moveOracle interface {
	RequestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error)
}

// Rules are the fixed parameters of a match.
type Rules struct {
	Width        int
	Height       int
	StepsPerTurn int
	MaxTurns     int
	LogSize      int
}

// MoveTicket binds an outstanding move request to the game it was issued for.
type MoveTicket struct {
	Generation uint64
	Turn       int
	Player     entity.Player
	Grid       entity.Grid
}

// GameManager owns the single authoritative game state and moves it through
// its phases. All mutations happen under one lock; observers receive a
// snapshot after the lock is released.
type GameManager struct {
	logger *slog.Logger
	oracle moveOracle
	rules  Rules

	mu           sync.Mutex
	sessionID    string
	phase        entity.Phase
	grid         entity.Grid
	activePlayer entity.Player
	turn         int
	simStep      int
	score        entity.Score
	winner       entity.Outcome
	log          *entity.GameLog
	generation   uint64
	version      uint64
	inFlight     bool
	observer     func(entity.Snapshot)
}

func NewGameManager(logger *slog.Logger, oracle moveOracle, rules Rules) *GameManager {
	return &GameManager{
		logger: logger,
		oracle: oracle,
		rules:  rules,

		phase:        entity.PhaseIdle,
		grid:         entity.NewGrid(rules.Width, rules.Height),
		activePlayer: entity.Player1,
		log:          entity.NewGameLog(rules.LogSize),
	}
}

// SetObserver registers the function called with every published snapshot.
func (that *GameManager) SetObserver(observer func(entity.Snapshot)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.observer = observer
}

// Start discards any current game and begins a new one waiting for player 1.
func (that *GameManager) Start(sessionID string) entity.Snapshot {
	that.mu.Lock()
	that.resetLocked()
	that.sessionID = sessionID
	that.phase = entity.PhasePlayer1Thinking
	that.log.Add(that.turn, "Game started! Player 1 is thinking...")
	snapshot := that.snapshotLocked()
	that.mu.Unlock()

	that.logger.Info("game started", "session_id", sessionID, "generation", snapshot.Generation)
	that.publish(snapshot)

	return snapshot
}

// Reset returns to Idle with an empty grid and no session. Pending move
// results and ticks of the previous game are rejected afterwards.
func (that *GameManager) Reset() entity.Snapshot {
	that.mu.Lock()
	closed := that.sessionID
	that.resetLocked()
	snapshot := that.snapshotLocked()
	that.mu.Unlock()

	that.logger.Info("game reset", "session_id", closed, "generation", snapshot.Generation)
	that.publish(snapshot)

	return snapshot
}

// BeginMove marks a move request as outstanding for the active player.
// At most one request may be outstanding at a time.
func (that *GameManager) BeginMove(generation uint64) (MoveTicket, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if generation != that.generation {
		return MoveTicket{}, apperror.ErrStaleGeneration
	}

	if !that.phase.IsThinking() {
		return MoveTicket{}, that.phaseErrorLocked("begin move")
	}

	if that.inFlight {
		return MoveTicket{}, apperror.ErrMoveInFlight
	}

	that.inFlight = true

	return MoveTicket{
		Generation: that.generation,
		Turn:       that.turn,
		Player:     that.activePlayer,
		Grid:       that.grid,
	}, nil
}

// CompleteMove applies the outcome of the request identified by ticket.
// A failed or invalid move ends the game.
func (that *GameManager) CompleteMove(ticket MoveTicket, move entity.Move, moveErr error) error {
	log := that.logger.With("method", "CompleteMove")

	that.mu.Lock()

	if ticket.Generation != that.generation {
		that.mu.Unlock()
		log.Debug("dropping move result of a reset game", "generation", ticket.Generation)

		return apperror.ErrStaleGeneration
	}

	if !that.phase.IsThinking() {
		err := that.phaseErrorLocked("complete move")
		that.mu.Unlock()

		return err
	}

	if !that.inFlight || ticket.Turn != that.turn || ticket.Player != that.activePlayer {
		phase := that.phase
		that.mu.Unlock()
		log.Warn("dropping move result without a matching request",
			"player", ticket.Player, "turn", ticket.Turn, "phase", phase)

		return apperror.ErrStaleMove
	}

	that.inFlight = false

	if moveErr == nil {
		moveErr = move.Validate(that.rules.Width, that.rules.Height)
	}

	if moveErr != nil {
		that.phase = entity.PhaseGameOver
		that.log.Add(that.turn, fmt.Sprintf("Error for %s. Stopping game.", ticket.Player))
		snapshot := that.snapshotLocked()
		that.mu.Unlock()

		log.Error("move failed, game stopped", "player", ticket.Player, "error", moveErr)
		that.publish(snapshot)

		return fmt.Errorf("%w: %w", apperror.ErrOracleFailure, moveErr)
	}

	that.grid = lifegame.Place(that.grid, move, ticket.Player)
	that.score = lifegame.Score(that.grid)
	that.log.Add(that.turn, fmt.Sprintf("%s places a pattern. Reasoning: %s", ticket.Player, move.Rationale))

	if ticket.Player == entity.Player1 {
		that.activePlayer = entity.Player2
		that.phase = entity.ThinkingPhase(that.activePlayer)
		that.log.Add(that.turn, "Player 2 is thinking...")
	} else {
		that.phase = entity.PhaseSimulating
		that.simStep = 0
		that.log.Add(that.turn, fmt.Sprintf("Turn %d simulation starts...", that.turn+1))
	}

	snapshot := that.snapshotLocked()
	that.mu.Unlock()

	that.publish(snapshot)

	return nil
}

// Advance asks the oracle for the active player's move and applies it.
func (that *GameManager) Advance(ctx context.Context, generation uint64) error {
	ticket, err := that.BeginMove(generation)
	if err != nil {
		return err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "GameManager.Advance")
	defer span.End()

	span.SetAttributes(
		attribute.Int("game.turn", ticket.Turn),
		attribute.Int("game.player", int(ticket.Player)),
	)

	move, moveErr := that.oracle.RequestMove(ctx, ticket.Grid, ticket.Player)
	if moveErr != nil {
		span.RecordError(moveErr)
		span.SetStatus(codes.Error, "move request failed")
	}

	return that.CompleteMove(ticket, move, moveErr)
}

// Tick advances the simulation by one generation. The tick that reaches the
// last step of a turn also performs the end of turn transition.
func (that *GameManager) Tick(generation uint64) error {
	that.mu.Lock()

	if generation != that.generation {
		that.mu.Unlock()

		return apperror.ErrStaleGeneration
	}

	if that.phase != entity.PhaseSimulating {
		err := that.phaseErrorLocked("tick")
		that.mu.Unlock()

		return err
	}

	that.grid = lifegame.Step(that.grid)
	that.score = lifegame.Score(that.grid)
	that.simStep++

	if that.simStep >= that.rules.StepsPerTurn {
		that.endTurnLocked()
	}

	snapshot := that.snapshotLocked()
	that.mu.Unlock()

	if snapshot.IsFinished() {
		that.logger.Info("game over", "session_id", snapshot.SessionID, "winner", snapshot.Winner,
			"player1", snapshot.Score.Player1, "player2", snapshot.Score.Player2)
	}

	that.publish(snapshot)

	return nil
}

func (that *GameManager) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.buildSnapshotLocked()
}

func (that *GameManager) endTurnLocked() {
	that.simStep = 0

	if that.turn+1 >= that.rules.MaxTurns {
		that.phase = entity.PhaseGameOver
		that.score = lifegame.Score(that.grid)
		that.winner = lifegame.DetermineWinner(that.score)
		that.log.Add(that.turn, "Max turns reached. Game over.")

		return
	}

	that.turn++
	that.activePlayer = entity.Player1
	that.phase = entity.ThinkingPhase(that.activePlayer)
	that.log.Add(that.turn, "Player 1 is thinking...")
}

func (that *GameManager) resetLocked() {
	that.generation++
	that.sessionID = ""
	that.inFlight = false
	that.phase = entity.PhaseIdle
	that.grid = entity.NewGrid(that.rules.Width, that.rules.Height)
	that.activePlayer = entity.Player1
	that.turn = 0
	that.simStep = 0
	that.score = entity.Score{}
	that.winner = entity.OutcomeNone
	that.log.Clear()
}

func (that *GameManager) phaseErrorLocked(operation string) error {
	var err error

	switch that.phase {
	case entity.PhaseIdle:
		err = fmt.Errorf("%w: %s: %w", apperror.ErrInvalidPhaseTransition, operation, apperror.ErrGameIsNotStarted)
	case entity.PhaseGameOver:
		err = fmt.Errorf("%w: %s: %w", apperror.ErrInvalidPhaseTransition, operation, apperror.ErrGameFinished)
	default:
		err = fmt.Errorf("%w: %s in phase %s", apperror.ErrInvalidPhaseTransition, operation, that.phase)
	}

	that.logger.Error("rejected transition", "operation", operation, "phase", that.phase, "error", err)

	return err
}

// snapshotLocked bumps the version and captures the state to publish.
func (that *GameManager) snapshotLocked() entity.Snapshot {
	that.version++

	return that.buildSnapshotLocked()
}

func (that *GameManager) buildSnapshotLocked() entity.Snapshot {
	return entity.Snapshot{
		SessionID:    that.sessionID,
		Generation:   that.generation,
		Version:      that.version,
		Phase:        that.phase,
		ActivePlayer: that.activePlayer,
		Turn:         that.turn,
		MaxTurns:     that.rules.MaxTurns,
		SimStep:      that.simStep,
		StepsPerTurn: that.rules.StepsPerTurn,
		Score:        that.score,
		Winner:       that.winner,
		Log:          that.log.Entries(),
		Grid:         that.grid,
		UpdatedAt:    time.Now().UTC(),
	}
}

func (that *GameManager) publish(snapshot entity.Snapshot) {
	that.mu.Lock()
	observer := that.observer
	that.mu.Unlock()

	if observer != nil {
		observer(snapshot)
	}
}
