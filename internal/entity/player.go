package entity

import "fmt"

// Player identifies one of the two sides of a match.
type Player uint8

const (
	Player1 Player = 1
	Player2 Player = 2
)

// Opponent returns the other side.
func (that Player) Opponent() Player {
	if that == Player1 {
		return Player2
	}
	return Player1
}

func (that Player) IsValid() bool {
	return that == Player1 || that == Player2
}

func (that Player) String() string {
	return fmt.Sprintf("Player %d", uint8(that))
}

// Cell is either empty or owned by a player. The zero value is empty.
type Cell uint8

const CellEmpty Cell = 0

// OwnedBy returns the cell value owned by player.
func OwnedBy(player Player) Cell {
	return Cell(player)
}

// Owner reports the owning player of a live cell.
func (that Cell) Owner() (Player, bool) {
	if that == CellEmpty {
		return 0, false
	}
	return Player(that), true
}

func (that Cell) IsLive() bool {
	return that != CellEmpty
}
