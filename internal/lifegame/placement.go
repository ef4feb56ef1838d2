package lifegame

import "github.com/rocketscienceinc/lifebattle-backend/internal/entity"

// Place returns a copy of grid with the move's pattern stamped in for player.
// Pattern cells that land outside the grid are dropped; occupied cells are overwritten.
func Place(grid entity.Grid, move entity.Move, player entity.Player) entity.Grid {
	builder := grid.Builder()
	owned := entity.OwnedBy(player)

	for py, row := range move.Pattern {
		for px, alive := range row {
			if !alive {
				continue
			}

			x, y := move.Position.X+px, move.Position.Y+py
			if !grid.InBounds(x, y) {
				continue
			}

			builder.Set(x, y, owned)
		}
	}

	return builder.Grid()
}
