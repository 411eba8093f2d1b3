package config

import "errors"

var (
	// ErrParsingConfig is returned when the environment cannot be parsed
	// into the target struct.
	ErrParsingConfig = errors.New("failed to parse environment into config")

	// ErrNilPointer is returned when Load receives a nil target.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
