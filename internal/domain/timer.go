package domain

import (
	"fmt"
	"time"
)

// WarningThresholdSeconds is how long before the leave instant the one-shot alert fires.
const WarningThresholdSeconds = 600

// Phase is the countdown state derived from the remaining seconds.
type Phase string

const (
	PhaseCounting Phase = "counting"
	PhaseUrgent   Phase = "urgent"
	PhaseMissed   Phase = "missed"
	PhaseStopped  Phase = "stopped"
)

func (p Phase) String() string {
	return string(p)
}

// PhaseFor maps remaining seconds onto the running phases.
func PhaseFor(secondsRemaining int64) Phase {
	switch {
	case secondsRemaining <= 0:
		return PhaseMissed
	case secondsRemaining <= WarningThresholdSeconds:
		return PhaseUrgent
	default:
		return PhaseCounting
	}
}

type TimerConfig struct {
	Deadline             Deadline
	TravelMinutes        int
	NotificationsEnabled bool
	Label                string
}

func (c TimerConfig) Validate() error {
	if err := c.Deadline.Validate(); err != nil {
		return err
	}
	if c.TravelMinutes < 0 {
		return newConfigurationError("travel_minutes", ErrNegativeTravel,
			fmt.Sprintf("got %d", c.TravelMinutes))
	}
	return nil
}

func (c TimerConfig) TravelDuration() time.Duration {
	return time.Duration(c.TravelMinutes) * time.Minute
}

// TimerState is recomputed on every tick.
type TimerState struct {
	SecondsRemaining int64 `json:"seconds_remaining"`
	HasNotified      bool  `json:"has_notified"`
}

// TimerRegistration is the persisted form of a running timer.
type TimerRegistration struct {
	ID        string
	Config    TimerConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewTimerRegistration(id string, cfg TimerConfig, now time.Time) *TimerRegistration {
	return &TimerRegistration{
		ID:        id,
		Config:    cfg,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}
