package config

import (
	"os"
	"strconv"
	"time"
)

const (
	departureTickIntervalEnv  = "DEPARTURE_TICK_INTERVAL_MS"
	departureDisplayWindowEnv = "DEPARTURE_DISPLAY_WINDOW_MINUTES"
	departureRolloverEnv      = "DEPARTURE_ROLLOVER"

	defaultTickInterval  = time.Second
	defaultDisplayWindow = 4 * time.Hour
	defaultRollover      = RolloverDeadline
)

// Rollover mirrors departure.Rollover so config stays free of service imports.
type Rollover string

const (
	RolloverDeadline Rollover = "deadline"
	RolloverLeave    Rollover = "leave"
)

type DepartureConfig struct {
	TickInterval  time.Duration
	DisplayWindow time.Duration
	Rollover      Rollover
}

func LoadDepartureConfig() (*DepartureConfig, error) {
	tickInterval := defaultTickInterval
	if v := os.Getenv(departureTickIntervalEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidTickInterval
		}
		tickInterval = time.Duration(parsed) * time.Millisecond
	}

	displayWindow := defaultDisplayWindow
	if v := os.Getenv(departureDisplayWindowEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			displayWindow = time.Duration(parsed) * time.Minute
		}
	}

	rollover := Rollover(os.Getenv(departureRolloverEnv))
	switch rollover {
	case "":
		rollover = defaultRollover
	case RolloverDeadline, RolloverLeave:
	default:
		return nil, ErrInvalidRollover
	}

	return &DepartureConfig{
		TickInterval:  tickInterval,
		DisplayWindow: displayWindow,
		Rollover:      rollover,
	}, nil
}
