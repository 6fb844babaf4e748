package types

import "errors"

// Sentinel errors shared between the terminal boundary and the engine.
var (
	// Terminal errors
	ErrNotConnected     = errors.New("terminal not connected")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrRequestTimeout   = errors.New("terminal request timeout")

	// Signal errors
	ErrInvalidSignal = errors.New("invalid signal payload")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
)
