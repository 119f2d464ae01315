package config

import "errors"

var (
	ErrRedisAddrMissing    = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB      = errors.New("REDIS_DB must be a valid integer")
	ErrInvalidTickInterval = errors.New("DEPARTURE_TICK_INTERVAL_MS must be a positive integer")
	ErrInvalidRollover     = errors.New("DEPARTURE_ROLLOVER must be one of: deadline, leave")
)
