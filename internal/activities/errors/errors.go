package errors

import "errors"

var (
	ErrNotFound = errors.New("activity not found")

	ErrInvalidID = errors.New("invalid activity ID format")

	// ErrLimitBelowParticipants is returned when a new participant limit would be lower
	// than the number of participants already admitted.
	ErrLimitBelowParticipants = errors.New("participant limit below current participants")
)
