package engine

import "errors"

var (
	// ErrOutOfBounds is returned by board accessors for positions outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrPreconditionViolation marks a commit attempted without a successful CanMove.
	ErrPreconditionViolation = errors.New("commit precondition violated")

	ErrInvalidLayout = errors.New("invalid layout")
	ErrInvalidMove   = errors.New("invalid move")
	ErrInvalidConfig = errors.New("invalid puzzle config")
)
