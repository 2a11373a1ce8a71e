package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("terminal capacity exceeded")
	ErrUnknownTerminal  = errors.New("unknown terminal")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrLockNotAcquired  = errors.New("generation already running for cooperative")
)
