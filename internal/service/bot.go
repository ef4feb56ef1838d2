package service

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

type namedPattern struct {
	name    string
	pattern entity.Pattern
}

// botLibrary holds classic shapes that either move, oscillate or stay stable.
var botLibrary = []namedPattern{
	{"glider", entity.ParsePattern([][]int{{0, 1, 0}, {0, 0, 1}, {1, 1, 1}})},
	{"blinker", entity.ParsePattern([][]int{{1, 1, 1}})},
	{"block", entity.ParsePattern([][]int{{1, 1}, {1, 1}})},
	{"beehive", entity.ParsePattern([][]int{{0, 1, 1, 0}, {1, 0, 0, 1}, {0, 1, 1, 0}})},
	{"r-pentomino", entity.ParsePattern([][]int{{0, 1, 1}, {1, 1, 0}, {0, 1, 0}})},
	{"single cell", entity.ParsePattern([][]int{{1}})},
}

// RandomBot places a random pattern from its library at a random position
// where the pattern fits. Moves are reproducible for a given seed.
type RandomBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomBot(seed uint64) *RandomBot {
	return &RandomBot{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (that *RandomBot) RequestMove(ctx context.Context, grid entity.Grid, player entity.Player) (entity.Move, error) {
	if err := ctx.Err(); err != nil {
		return entity.Move{}, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	choice := botLibrary[that.rng.IntN(len(botLibrary))]
	height := len(choice.pattern)
	width := len(choice.pattern[0])

	return entity.Move{
		Pattern: choice.pattern,
		Position: entity.Position{
			X: that.rng.IntN(max(1, grid.Width()-width+1)),
			Y: that.rng.IntN(max(1, grid.Height()-height+1)),
		},
		Rationale: "Random " + choice.name + " for " + player.String() + ".",
	}, nil
}
