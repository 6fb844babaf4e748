// Package mt5 provides connectivity to a MetaTrader 5 bridge.
package mt5

import (
	"time"
)

// Config holds bridge connection configuration.
type Config struct {
	// Connection settings
	Host string
	Port int

	// Timeouts
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	// Rate limiting
	MaxRequestsPerSecond int

	// AutoReconnect redials a dropped connection on the next request.
	AutoReconnect bool
}

// DefaultConfig returns default bridge configuration.
func DefaultConfig() Config {
	return Config{
		Host:                 "127.0.0.1",
		Port:                 18812,
		ConnectTimeout:       10 * time.Second,
		RequestTimeout:       30 * time.Second,
		MaxRequestsPerSecond: 20,
		AutoReconnect:        true,
	}
}
