package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/lifebattle-backend/internal/apperror"
)

// MaxPatternSize bounds both pattern dimensions.
const MaxPatternSize = 5

// Pattern is a small rectangular matrix; true cells become live cells of the acting player.
type Pattern [][]bool

// Position is the top-left offset at which a pattern is placed.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Move is a pattern placement proposed by an oracle.
type Move struct {
	Pattern   Pattern  `json:"pattern"`
	Position  Position `json:"position"`
	Rationale string   `json:"rationale"`
}

// ParsePattern builds a pattern from rows of 0/1 values.
func ParsePattern(rows [][]int) Pattern {
	pattern := make(Pattern, len(rows))
	for y, row := range rows {
		pattern[y] = make([]bool, len(row))
		for x, value := range row {
			pattern[y][x] = value == 1
		}
	}
	return pattern
}

// LiveCells returns the number of true cells in the pattern.
func (that Pattern) LiveCells() int {
	count := 0
	for _, row := range that {
		for _, alive := range row {
			if alive {
				count++
			}
		}
	}
	return count
}

// Validate checks the move against the oracle contract for a width x height grid.
// Pattern cells that fall outside the grid are legal; the position itself is not.
func (that Move) Validate(width, height int) error {
	if len(that.Pattern) == 0 {
		return fmt.Errorf("%w: pattern is missing", apperror.ErrInvalidMove)
	}

	if len(that.Pattern) > MaxPatternSize {
		return fmt.Errorf("%w: pattern has %d rows, max %d", apperror.ErrInvalidMove, len(that.Pattern), MaxPatternSize)
	}

	for y, row := range that.Pattern {
		if len(row) == 0 || len(row) > MaxPatternSize {
			return fmt.Errorf("%w: pattern row %d has %d cells, want 1..%d", apperror.ErrInvalidMove, y, len(row), MaxPatternSize)
		}
	}

	if that.Position.X < 0 || that.Position.X >= width || that.Position.Y < 0 || that.Position.Y >= height {
		return fmt.Errorf("%w: position (%d,%d) outside %dx%d", apperror.ErrInvalidMove, that.Position.X, that.Position.Y, width, height)
	}

	if strings.TrimSpace(that.Rationale) == "" {
		return fmt.Errorf("%w: rationale is missing", apperror.ErrInvalidMove)
	}

	return nil
}
