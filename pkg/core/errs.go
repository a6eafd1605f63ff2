package core

import "errors"

var (
	ErrProvider         = errors.New("provider error")
	ErrNotSupported     = errors.New("operation not supported by provider")
	ErrEmptySeries      = errors.New("empty series")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrUnknownSide      = errors.New("unknown side")
)
