package storage

import "errors"

var (
	// ErrInvalidPileKey signals a pile that does not exist or whose height
	// class does not match the container. It is a strategy defect.
	ErrInvalidPileKey = errors.New("invalid pile key")
	// ErrEmptyPile is returned when inspecting or popping an empty pile.
	ErrEmptyPile = errors.New("empty pile")
	// ErrDuplicateContainer is returned when placing a container that is
	// already stacked or already left the yard.
	ErrDuplicateContainer = errors.New("container already placed")
	// ErrStillStacked is returned when selling or discarding a container that
	// was not popped first.
	ErrStillStacked = errors.New("container still stacked")
	// ErrAlreadyTerminated is returned when a container is sold or discarded twice.
	ErrAlreadyTerminated = errors.New("container already terminated")
)
