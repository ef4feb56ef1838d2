package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

type gameDriver interface {
	Snapshot() entity.Snapshot
	Advance(ctx context.Context, generation uint64) error
	Tick(generation uint64) error
}

// Runner drives one game generation to completion: it requests moves while a
// player is thinking and paces simulation ticks with a ticker.
type Runner struct {
	logger   *slog.Logger
	game     gameDriver
	interval time.Duration
}

func NewRunner(logger *slog.Logger, game gameDriver, interval time.Duration) *Runner {
	return &Runner{
		logger:   logger,
		game:     game,
		interval: interval,
	}
}

// Run returns when the game is over, the generation was replaced or ctx is done.
func (that *Runner) Run(ctx context.Context, generation uint64) error {
	log := that.logger.With("method", "Run", "generation", generation)

	for {
		if ctx.Err() != nil {
			log.Debug("runner cancelled")
			return nil
		}

		snapshot := that.game.Snapshot()
		if snapshot.Generation != generation {
			return nil
		}

		var err error
		switch {
		case snapshot.Phase.IsThinking():
			err = that.game.Advance(ctx, generation)
		case snapshot.Phase == entity.PhaseSimulating:
			err = that.simulate(ctx, generation, snapshot.StepsPerTurn-snapshot.SimStep)
		default:
			log.Debug("runner finished", "phase", snapshot.Phase)
			return nil
		}

		switch {
		case err == nil:
		case errors.Is(err, apperror.ErrStaleGeneration):
			return nil
		case errors.Is(err, apperror.ErrOracleFailure):
			log.Warn("move failed", "error", err)
		default:
			return fmt.Errorf("failed to drive game: %w", err)
		}
	}
}

func (that *Runner) simulate(ctx context.Context, generation uint64, remaining int) error {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for ; remaining > 0; remaining-- {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := that.game.Tick(generation); err != nil {
			return err
		}
	}

	return nil
}
