package lifegame

import "github.com/rocketscienceinc/lifebattle-backend/internal/entity"

const (
	birthNeighbors      = 3
	minSurviveNeighbors = 2
	maxSurviveNeighbors = 3
)

// Step computes the next generation of grid under territorial Life rules.
// Every cell of the result is derived from the input grid only.
func Step(grid entity.Grid) entity.Grid {
	builder := entity.NewGrid(grid.Width(), grid.Height()).Builder()

	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if cell := nextCell(grid.Get(x, y), grid.Neighbors(x, y)); cell.IsLive() {
				builder.Set(x, y, cell)
			}
		}
	}

	return builder.Grid()
}

func nextCell(current entity.Cell, neighbors entity.Neighbors) entity.Cell {
	if current.IsLive() {
		if neighbors.Total >= minSurviveNeighbors && neighbors.Total <= maxSurviveNeighbors {
			return current
		}
		return entity.CellEmpty
	}

	if neighbors.Total == birthNeighbors {
		return entity.OwnedBy(birthOwner(neighbors))
	}

	return entity.CellEmpty
}

// birthOwner picks the owner of a newborn cell: Player 1 only with strictly more
// neighbours, so an even split goes to Player 2.
func birthOwner(neighbors entity.Neighbors) entity.Player {
	if neighbors.P1 > neighbors.P2 {
		return entity.Player1
	}
	return entity.Player2
}
