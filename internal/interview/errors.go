package interview

import "errors"

var (
	// ErrFinished is returned when a turn is submitted to a session that has
	// entered finalization.
	ErrFinished = errors.New("interview already finished")

	// ErrEmptyAnswer is returned for blank answers; nothing is recorded.
	ErrEmptyAnswer = errors.New("empty answer")
)
