package departure

import (
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

// DefaultDisplayWindow is the span the progress bar covers.
const DefaultDisplayWindow = 4 * time.Hour

// Display holds the presentation fields derived from the remaining seconds.
// ProgressPercent is cosmetic only.
type Display struct {
	Hours           int64   `json:"hours"`
	Minutes         int64   `json:"minutes"`
	Seconds         int64   `json:"seconds"`
	IsUrgent        bool    `json:"is_urgent"`
	IsMissed        bool    `json:"is_missed"`
	ProgressPercent float64 `json:"progress_percent"`
}

func NewDisplay(remaining int64, window time.Duration) Display {
	if remaining < 0 {
		remaining = 0
	}

	return Display{
		Hours:           remaining / 3600,
		Minutes:         (remaining % 3600) / 60,
		Seconds:         remaining % 60,
		IsUrgent:        remaining > 0 && remaining <= domain.WarningThresholdSeconds,
		IsMissed:        remaining == 0,
		ProgressPercent: progressPercent(remaining, window),
	}
}

func progressPercent(remaining int64, window time.Duration) float64 {
	windowSeconds := window.Seconds()
	if windowSeconds <= 0 {
		return 0
	}

	pct := (windowSeconds - float64(remaining)) / windowSeconds * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
