package apperror

import "errors"

var (
	ErrGameFinished           = errors.New("game is already finished")
	ErrGameIsNotStarted       = errors.New("game is not started")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	ErrMoveInFlight           = errors.New("move request already in flight")
	ErrStaleGeneration        = errors.New("operation belongs to a reset game")
	ErrStaleMove              = errors.New("move result does not match the outstanding request")
	ErrOracleFailure          = errors.New("move oracle failed")
	ErrInvalidMove            = errors.New("invalid move")
	ErrNotFound               = errors.New("not found")
)
