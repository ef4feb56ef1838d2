package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
)

func TestGrid(t *testing.T) {
	t.Run("New grid is empty", func(t *testing.T) {
		// Given: a new 50x40 grid
		grid := NewGrid(50, 40)

		// Then: dimensions match and no cell is live
		assert.Equal(t, 50, grid.Width())
		assert.Equal(t, 40, grid.Height())
		assert.Zero(t, grid.Count(Player1))
		assert.Zero(t, grid.Count(Player2))
	})

	t.Run("With returns a new grid and leaves the original alone", func(t *testing.T) {
		// Given: an empty grid
		grid := NewGrid(3, 3)

		// When: a cell is set through With
		next := grid.With(1, 1, OwnedBy(Player2))

		// Then: only the new grid holds the cell
		assert.Equal(t, OwnedBy(Player2), next.Get(1, 1))
		assert.Equal(t, CellEmpty, grid.Get(1, 1))
	})

	t.Run("Get panics outside the grid", func(t *testing.T) {
		grid := NewGrid(3, 3)

		assert.Panics(t, func() { grid.Get(3, 0) })
		assert.Panics(t, func() { grid.Get(0, -1) })
	})

	t.Run("Neighbors counts per owner and clips at the corner", func(t *testing.T) {
		// Given: a corner cell surrounded by two P1 and one P2 cell
		grid := NewGrid(3, 3).
			With(1, 0, OwnedBy(Player1)).
			With(0, 1, OwnedBy(Player1)).
			With(1, 1, OwnedBy(Player2)).
			With(2, 2, OwnedBy(Player2))

		// When: counting neighbours of (0,0)
		neighbors := grid.Neighbors(0, 0)

		// Then: the far corner is not counted and nothing wraps
		assert.Equal(t, Neighbors{P1: 2, P2: 1, Total: 3}, neighbors)
	})

	t.Run("JSON round trip keeps ownership", func(t *testing.T) {
		// Given: a grid with cells for both players
		grid := NewGrid(2, 2).With(0, 0, OwnedBy(Player1)).With(1, 1, OwnedBy(Player2))

		// When: the grid is encoded and decoded
		data, err := json.Marshal(grid)
		require.NoError(t, err)

		var decoded Grid
		require.NoError(t, json.Unmarshal(data, &decoded))

		// Then: rows are encoded as owner numbers and the grid is restored
		assert.JSONEq(t, `[[1,0],[0,2]]`, string(data))
		assert.True(t, grid.Equal(decoded))
	})

	t.Run("Zero grid round trips as an empty list", func(t *testing.T) {
		data, err := json.Marshal(Grid{})
		require.NoError(t, err)

		var decoded Grid
		require.NoError(t, json.Unmarshal(data, &decoded))

		assert.JSONEq(t, `[]`, string(data))
		assert.Zero(t, decoded.Width())
	})

	t.Run("JSON decoding rejects unknown owners", func(t *testing.T) {
		var decoded Grid
		err := json.Unmarshal([]byte(`[[0,3]]`), &decoded)

		require.ErrorIs(t, err, ErrInvalidGrid)
	})
}

func TestMove_Validate(t *testing.T) {
	valid := Move{
		Pattern:   ParsePattern([][]int{{0, 1, 0}, {0, 0, 1}, {1, 1, 1}}),
		Position:  Position{X: 10, Y: 5},
		Rationale: "glider heading south-east",
	}

	t.Run("Accepts a well formed move", func(t *testing.T) {
		assert.NoError(t, valid.Validate(50, 40))
	})

	t.Run("Rejects missing pattern", func(t *testing.T) {
		move := valid
		move.Pattern = nil

		assert.ErrorIs(t, move.Validate(50, 40), apperror.ErrInvalidMove)
	})

	t.Run("Rejects oversized pattern", func(t *testing.T) {
		move := valid
		move.Pattern = ParsePattern([][]int{{1, 1, 1, 1, 1, 1}})

		assert.ErrorIs(t, move.Validate(50, 40), apperror.ErrInvalidMove)
	})

	t.Run("Rejects position outside the grid", func(t *testing.T) {
		move := valid
		move.Position = Position{X: 50, Y: 0}

		assert.ErrorIs(t, move.Validate(50, 40), apperror.ErrInvalidMove)
	})

	t.Run("Rejects blank rationale", func(t *testing.T) {
		move := valid
		move.Rationale = "  "

		assert.ErrorIs(t, move.Validate(50, 40), apperror.ErrInvalidMove)
	})
}

func TestGameLog(t *testing.T) {
	t.Run("Keeps only the most recent entries", func(t *testing.T) {
		// Given: a log limited to two entries
		log := NewGameLog(2)

		// When: three events are recorded
		log.Add(0, "first")
		log.Add(0, "second")
		log.Add(1, "third")

		// Then: the oldest entry is gone and turns are 1-based
		assert.Equal(t, []string{"[Turn 1] second", "[Turn 2] third"}, log.Entries())
	})

	t.Run("Entries returns a copy", func(t *testing.T) {
		log := NewGameLog(3)
		log.Add(0, "event")

		entries := log.Entries()
		entries[0] = "changed"

		assert.Equal(t, []string{"[Turn 1] event"}, log.Entries())
	})
}

func TestPhase(t *testing.T) {
	assert.True(t, PhasePlayer1Thinking.IsThinking())
	assert.True(t, PhasePlayer2Thinking.IsThinking())
	assert.False(t, PhaseSimulating.IsThinking())
	assert.Equal(t, PhasePlayer2Thinking, ThinkingPhase(Player2))
	assert.Equal(t, Player1, Player2.Opponent())
}
