package entity

import (
	"encoding/json"
	"fmt"
)

// Grid is a fixed-size board of cells stored in row-major order.
// A Grid is treated as a value: every transformation returns a new Grid
// with its own storage, so earlier states stay valid.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// Neighbors holds per-owner live neighbour counts around a cell.
type Neighbors struct {
	P1    int
	P2    int
	Total int
}

// NewGrid returns an empty grid of the given dimensions.
func NewGrid(width, height int) Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", width, height))
	}

	return Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
}

func (that Grid) Width() int  { return that.width }
func (that Grid) Height() int { return that.height }

// InBounds reports whether (x, y) lies on the grid.
func (that Grid) InBounds(x, y int) bool {
	return x >= 0 && x < that.width && y >= 0 && y < that.height
}

// Get returns the cell at (x, y). Out-of-range access is a programming error.
func (that Grid) Get(x, y int) Cell {
	if !that.InBounds(x, y) {
		panic(fmt.Sprintf("grid: (%d,%d) out of range %dx%d", x, y, that.width, that.height))
	}
	return that.cells[y*that.width+x]
}

// Clone returns an independent copy of the grid.
func (that Grid) Clone() Grid {
	cells := make([]Cell, len(that.cells))
	copy(cells, that.cells)

	return Grid{width: that.width, height: that.height, cells: cells}
}

// With returns a copy of the grid with (x, y) set to cell.
func (that Grid) With(x, y int, cell Cell) Grid {
	next := that.Clone()
	next.set(x, y, cell)
	return next
}

// Neighbors counts live cells in the Moore neighbourhood of (x, y).
// The neighbourhood is clipped at the edges; there is no wraparound.
func (that Grid) Neighbors(x, y int) Neighbors {
	var n Neighbors

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}

			nx, ny := x+dx, y+dy
			if !that.InBounds(nx, ny) {
				continue
			}

			switch that.cells[ny*that.width+nx] {
			case OwnedBy(Player1):
				n.P1++
				n.Total++
			case OwnedBy(Player2):
				n.P2++
				n.Total++
			}
		}
	}

	return n
}

// Count returns the number of cells owned by player.
func (that Grid) Count(player Player) int {
	owned := OwnedBy(player)

	count := 0
	for _, cell := range that.cells {
		if cell == owned {
			count++
		}
	}
	return count
}

// Builder returns a mutable copy for code that fills a fresh grid cell by cell.
func (that Grid) Builder() *GridBuilder {
	return &GridBuilder{grid: that.Clone()}
}

func (that Grid) set(x, y int, cell Cell) {
	if !that.InBounds(x, y) {
		panic(fmt.Sprintf("grid: (%d,%d) out of range %dx%d", x, y, that.width, that.height))
	}
	that.cells[y*that.width+x] = cell
}

// Equal reports whether both grids have the same size and cells.
func (that Grid) Equal(other Grid) bool {
	if that.width != other.width || that.height != other.height {
		return false
	}
	for i := range that.cells {
		if that.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Rows returns the grid as a slice of rows of owner numbers (0 = empty).
func (that Grid) Rows() [][]int {
	rows := make([][]int, that.height)
	for y := range rows {
		row := make([]int, that.width)
		for x := range row {
			row[x] = int(that.cells[y*that.width+x])
		}
		rows[y] = row
	}
	return rows
}

func (that Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Rows())
}

func (that *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal grid rows: %w", err)
	}

	if len(rows) == 0 {
		*that = Grid{}
		return nil
	}

	if len(rows[0]) == 0 {
		return fmt.Errorf("%w: empty row", ErrInvalidGrid)
	}

	grid := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != grid.width {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidGrid, y, len(row), grid.width)
		}
		for x, value := range row {
			cell := Cell(value)
			if value < 0 || (cell != CellEmpty && !Player(cell).IsValid()) {
				return fmt.Errorf("%w: cell (%d,%d) has value %d", ErrInvalidGrid, x, y, value)
			}
			grid.cells[y*grid.width+x] = cell
		}
	}

	*that = grid
	return nil
}

// GridBuilder fills a grid that is not yet shared with anyone.
type GridBuilder struct {
	grid Grid
}

func (that *GridBuilder) Set(x, y int, cell Cell) {
	that.grid.set(x, y, cell)
}

// Grid hands the built grid over; the builder must not be used afterwards.
func (that *GridBuilder) Grid() Grid {
	grid := that.grid
	that.grid = Grid{}
	return grid
}
