package engine

import "errors"

// Error kinds returned by Service, matching spec.md §7.
var (
	// ErrNotInitialized is returned when an operation requires a prior
	// Initialize call.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrMissingCalendar is returned when Calculate is invoked with no
	// calendar loaded.
	ErrMissingCalendar = errors.New("engine: no calendar loaded")

	// ErrUnknownTask is returned by UpdateTask/DeleteTask for an absent id.
	ErrUnknownTask = errors.New("engine: unknown task id")

	// ErrDeserialization is returned when input does not match the wire
	// schema.
	ErrDeserialization = errors.New("engine: deserialization failed")
)
