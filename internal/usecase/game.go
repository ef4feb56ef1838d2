package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const persistTimeout = 2 * time.Second

type GameUseCase interface {
	Start(ctx context.Context) (entity.Snapshot, error)
	Reset(ctx context.Context) (entity.Snapshot, error)
	State(ctx context.Context) entity.Snapshot
	Lookup(ctx context.Context, sessionID string) (entity.Snapshot, error)
	Results(ctx context.Context, limit int) ([]entity.MatchResult, error)
	Subscribe() (<-chan entity.Snapshot, func())
	Close()
}

type gameRepo interface {
	Save(ctx context.Context, snapshot entity.Snapshot) error
	GetByID(ctx context.Context, id string) (entity.Snapshot, error)
}

type resultRepo interface {
	Add(ctx context.Context, result entity.MatchResult) error
	List(ctx context.Context, limit int) ([]entity.MatchResult, error)
}

type gameUseCase struct {
	logger      *slog.Logger
	manager     *GameManager
	runner      *Runner
	gameRepo    gameRepo
	resultRepo  resultRepo
	broadcaster *Broadcaster

	// base outlives requests; runners and persistence derive from it.
	base context.Context

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	recordMu           sync.Mutex
	recordedGeneration uint64
}

// NewGameUseCase wires the game manager to persistence and subscribers and
// owns the runner of the current match.
func NewGameUseCase(
	base context.Context,
	logger *slog.Logger,
	manager *GameManager,
	runner *Runner,
	gameRepo gameRepo,
	resultRepo resultRepo,
	broadcaster *Broadcaster,
) GameUseCase {
	useCase := &gameUseCase{
		logger:      logger,
		manager:     manager,
		runner:      runner,
		gameRepo:    gameRepo,
		resultRepo:  resultRepo,
		broadcaster: broadcaster,
		base:        base,
	}

	manager.SetObserver(useCase.publish)

	return useCase
}

// Start begins a fresh match under a new session id, replacing any match in progress.
func (that *gameUseCase) Start(_ context.Context) (entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := that.manager.Start(uuid.NewString())
	that.stopRunnerLocked()

	ctx, cancel := context.WithCancel(that.base)
	that.cancel = cancel
	that.wg.Add(1)

	go func() {
		defer that.wg.Done()

		if err := that.runner.Run(ctx, snapshot.Generation); err != nil {
			that.logger.Error("game runner stopped", "session_id", snapshot.SessionID, "error", err)
		}
	}()

	return snapshot, nil
}

func (that *gameUseCase) Reset(_ context.Context) (entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := that.manager.Reset()
	that.stopRunnerLocked()

	return snapshot, nil
}

func (that *gameUseCase) State(_ context.Context) entity.Snapshot {
	return that.manager.Snapshot()
}

// Lookup returns the last persisted snapshot of a session, which may be an
// earlier match than the current one.
func (that *gameUseCase) Lookup(ctx context.Context, sessionID string) (entity.Snapshot, error) {
	snapshot, err := that.gameRepo.GetByID(ctx, sessionID)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	return snapshot, nil
}

func (that *gameUseCase) Results(ctx context.Context, limit int) ([]entity.MatchResult, error) {
	results, err := that.resultRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

func (that *gameUseCase) Subscribe() (<-chan entity.Snapshot, func()) {
	return that.broadcaster.Subscribe()
}

// Close stops the current runner and waits for it to exit.
func (that *gameUseCase) Close() {
	that.mu.Lock()
	that.stopRunnerLocked()
	that.mu.Unlock()

	that.wg.Wait()
}

// stopRunnerLocked cancels the previous runner. The manager generation has
// already moved on, so the runner exits even if it is mid-request.
func (that *gameUseCase) stopRunnerLocked() {
	if that.cancel != nil {
		that.cancel()
		that.cancel = nil
	}
}

func (that *gameUseCase) publish(snapshot entity.Snapshot) {
	log := that.logger.With("method", "publish")

	that.broadcaster.Publish(snapshot)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(that.base), persistTimeout)
	defer cancel()

	if snapshot.SessionID != "" {
		if err := that.gameRepo.Save(ctx, snapshot); err != nil {
			log.Error("failed to save snapshot", "session_id", snapshot.SessionID, "error", err)
		}
	}

	if !snapshot.IsFinished() || !that.claimResult(snapshot.Generation) {
		return
	}

	result := entity.MatchResult{
		SessionID:  snapshot.SessionID,
		Winner:     snapshot.Winner,
		Score:      snapshot.Score,
		Turns:      snapshot.Turn + 1,
		FinishedAt: snapshot.UpdatedAt,
	}

	if err := that.resultRepo.Add(ctx, result); err != nil {
		log.Error("failed to store match result", "session_id", snapshot.SessionID, "error", err)
	}
}

// claimResult reports whether the result of generation has not been recorded yet.
func (that *gameUseCase) claimResult(generation uint64) bool {
	that.recordMu.Lock()
	defer that.recordMu.Unlock()

	if generation <= that.recordedGeneration {
		return false
	}

	that.recordedGeneration = generation

	return true
}
