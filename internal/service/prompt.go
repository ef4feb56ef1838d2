package service

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/lifebattle-backend/internal/entity"
)

const promptTemplate = `You are a master strategist in a territorial version of Conway's Game of Life.
Your goal is to own more live cells than your opponent after the simulation period.

RULES:
1. A dead cell with exactly 3 live neighbours comes alive and belongs to the player owning most of those neighbours.
2. A live cell with 2 or 3 live neighbours survives and keeps its owner.
3. Every other live cell dies.

GRID:
The grid is %dx%d. 'P' marks your cells (%s), 'O' marks the opponent's cells (%s) and '.' marks dead cells.
` + "```" + `
%s
` + "```" + `

STRATEGY:
- Place patterns that survive and grow, such as gliders and blinkers.
- Disrupt the opponent's formations.
- Claim empty territory.
- Avoid patterns that die at once or feed the opponent.

Answer with a single JSON object and nothing else:
{"pattern": [[0,1,0],[0,0,1],[1,1,1]], "position": {"x": 0, "y": 0}, "reasoning": "one short sentence"}
pattern is at most %dx%d and uses 1 for new live cells; position is the top-left corner with x in 0..%d and y in 0..%d.
`

// BuildPrompt renders the move request for player. The grid is drawn from
// the player's point of view.
func BuildPrompt(grid entity.Grid, player entity.Player) string {
	return fmt.Sprintf(promptTemplate,
		grid.Width(), grid.Height(), player, player.Opponent(),
		RenderGrid(grid, player),
		entity.MaxPatternSize, entity.MaxPatternSize,
		grid.Width()-1, grid.Height()-1,
	)
}

// RenderGrid draws one text row per grid row.
func RenderGrid(grid entity.Grid, player entity.Player) string {
	var sb strings.Builder
	sb.Grow((grid.Width() + 1) * grid.Height())

	for y := 0; y < grid.Height(); y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}

		for x := 0; x < grid.Width(); x++ {
			owner, live := grid.Get(x, y).Owner()

			switch {
			case !live:
				sb.WriteByte('.')
			case owner == player:
				sb.WriteByte('P')
			default:
				sb.WriteByte('O')
			}
		}
	}

	return sb.String()
}
