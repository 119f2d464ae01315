package departure

import (
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

// Rollover selects when a countdown cycle advances to the next day.
type Rollover string

const (
	// RolloverAtDeadline keeps today's cycle until the deadline itself has
	// passed, so the timer reports Missed between the leave instant and the deadline.
	RolloverAtDeadline Rollover = "deadline"
	// RolloverAtLeave advances as soon as the leave instant has passed.
	RolloverAtLeave Rollover = "leave"
)

func ParseRollover(s string) (Rollover, bool) {
	switch Rollover(s) {
	case RolloverAtDeadline:
		return RolloverAtDeadline, true
	case RolloverAtLeave:
		return RolloverAtLeave, true
	default:
		return "", false
	}
}

// NextOccurrence resolves the deadline to today in now's location, or to
// tomorrow once today's occurrence is strictly before now.
func NextOccurrence(now time.Time, d domain.Deadline) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// LeaveInstant returns the instant the user must depart and the deadline
// occurrence it was derived from.
func LeaveInstant(now time.Time, d domain.Deadline, travel time.Duration, rollover Rollover) (leaveAt, deadlineAt time.Time) {
	deadlineAt = NextOccurrence(now, d)
	leaveAt = deadlineAt.Add(-travel)

	if rollover != RolloverAtLeave || !leaveAt.Before(now) {
		return leaveAt, deadlineAt
	}

	// Skip whole days first so very long travel times stay cheap.
	if days := int(now.Sub(leaveAt) / (24 * time.Hour)); days > 0 {
		deadlineAt = deadlineAt.AddDate(0, 0, days)
		leaveAt = deadlineAt.Add(-travel)
	}
	for leaveAt.Before(now) {
		deadlineAt = deadlineAt.AddDate(0, 0, 1)
		leaveAt = deadlineAt.Add(-travel)
	}

	return leaveAt, deadlineAt
}

// RemainingSeconds floors the time left until leaveAt, clamped at zero.
func RemainingSeconds(now, leaveAt time.Time) int64 {
	diff := leaveAt.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int64(diff / time.Second)
}

// ComputeRemainingSeconds returns whole seconds left before the user must
// leave to meet the next occurrence of deadline.
func ComputeRemainingSeconds(now time.Time, d domain.Deadline, travelMinutes int) int64 {
	leaveAt, _ := LeaveInstant(now, d, time.Duration(travelMinutes)*time.Minute, RolloverAtDeadline)
	return RemainingSeconds(now, leaveAt)
}
