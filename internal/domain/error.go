package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNoEventTime       = errors.New("no event start time could be resolved")
	ErrExtractionFailed  = errors.New("model response did not contain usable event details")
	ErrMessageTooLong    = errors.New("message exceeds the model token budget")
	ErrUnknownTimezone   = errors.New("unknown timezone name")
	ErrModelNotAvailable = errors.New("no adapter available for requested model")
	ErrEventNotEditable  = errors.New("event can no longer be modified")

	// ErrInvalidExecContext reports an unsupported executor passed for qx.
	ErrInvalidExecContext = errors.New("invalid executor context for repository call")
)
