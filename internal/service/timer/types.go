package timer

import (
	"sync"
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/service/departure"
)

const (
	recordTimeout  = 5 * time.Second
	retractTimeout = 5 * time.Second
)

// Settings tunes every timer the service starts.
type Settings struct {
	TickInterval  time.Duration
	DisplayWindow time.Duration
	Rollover      departure.Rollover
}

type RouteTimer struct {
	Route *domain.RouteInfo  `json:"route"`
	Timer departure.Snapshot `json:"timer"`
}

type entry struct {
	timer *departure.Timer
	reg   *domain.TimerRegistration

	// mu serializes Update and Stop on this timer.
	mu      sync.Mutex
	removed bool
}
