package trafficlight

import "errors"

var (
	ErrAlreadyStarted = errors.New("traffic light already started")
	ErrNotStarted     = errors.New("traffic light not started")
	ErrNilContext     = errors.New("nil context")
	ErrUnknownPhase   = errors.New("unknown phase")
	ErrInvalidConfig  = errors.New("invalid config")
)
