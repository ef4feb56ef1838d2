package lifegame

import "github.com/rocketscienceinc/lifebattle-backend/internal/entity"

// Score counts the live cells of each player.
func Score(grid entity.Grid) entity.Score {
	return entity.Score{
		Player1: grid.Count(entity.Player1),
		Player2: grid.Count(entity.Player2),
	}
}

// DetermineWinner compares the final counts; equal counts are a draw.
func DetermineWinner(score entity.Score) entity.Outcome {
	switch {
	case score.Player1 > score.Player2:
		return entity.OutcomePlayer1
	case score.Player2 > score.Player1:
		return entity.OutcomePlayer2
	default:
		return entity.OutcomeDraw
	}
}
