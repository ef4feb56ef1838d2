package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const FallbackRationale = "Executing fallback maneuver due to a strategic calculation error."

type moveOracle interface {
	RequestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error)
}

// FallbackOracle never fails: errors and malformed moves of the wrapped
// oracle are replaced by a single cell at a random position.
type FallbackOracle struct {
	logger *slog.Logger
	oracle moveOracle

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFallbackOracle(logger *slog.Logger, oracle moveOracle, seed uint64) *FallbackOracle {
	return &FallbackOracle{
		logger: logger,
		oracle: oracle,
		rng:    rand.New(rand.NewPCG(seed, ^seed)),
	}
}

func (that *FallbackOracle) RequestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error) {
	log := that.logger.With("method", "RequestMove", "player", player)

	move, err := that.oracle.RequestMove(ctx, grid, player)
	if err == nil {
		err = move.Validate(grid.Width(), grid.Height())
	}

	if err == nil {
		return move, nil
	}

	log.Warn("oracle move rejected, using fallback", "error", err)

	return that.fallbackMove(grid), nil
}

func (that *FallbackOracle) fallbackMove(grid entity.Grid) entity.Move {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.Move{
		Pattern: entity.ParsePattern([][]int{{1}}),
		Position: entity.Position{
			X: that.rng.IntN(grid.Width()),
			Y: that.rng.IntN(grid.Height()),
		},
		Rationale: FallbackRationale,
	}
}
