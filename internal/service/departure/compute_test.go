package departure

import (
	"testing"
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

var kst = time.FixedZone("KST", 9*60*60)

func at(hour, minute, second int) time.Time {
	return time.Date(2024, time.March, 15, hour, minute, second, 0, kst)
}

func TestComputeRemainingSeconds(t *testing.T) {
	deadline := domain.Deadline{Hour: 23, Minute: 45}

	tests := []struct {
		name          string
		now           time.Time
		travelMinutes int
		expected      int64
	}{
		{
			name:          "ten minutes before leave instant is exactly 600",
			now:           at(23, 25, 0),
			travelMinutes: 10,
			expected:      600,
		},
		{
			name:          "fraction of a second is floored",
			now:           at(23, 24, 59).Add(500 * time.Millisecond),
			travelMinutes: 10,
			expected:      600,
		},
		{
			name:          "less than one second left floors to zero",
			now:           at(23, 34, 59).Add(999 * time.Millisecond),
			travelMinutes: 10,
			expected:      0,
		},
		{
			name:          "exactly at leave instant",
			now:           at(23, 35, 0),
			travelMinutes: 10,
			expected:      0,
		},
		{
			name:          "after leave instant but before deadline is clamped to zero",
			now:           at(23, 36, 0),
			travelMinutes: 10,
			expected:      0,
		},
		{
			name:          "exactly at deadline still resolves to today",
			now:           at(23, 45, 0),
			travelMinutes: 10,
			expected:      0,
		},
		{
			name:          "past deadline resolves to tomorrow",
			now:           at(23, 46, 0),
			travelMinutes: 10,
			expected:      24*3600 - 11*60,
		},
		{
			name:          "zero travel counts to deadline",
			now:           at(20, 0, 0),
			travelMinutes: 0,
			expected:      3*3600 + 45*60,
		},
		{
			name:          "early morning counts to tonight",
			now:           at(1, 0, 0),
			travelMinutes: 45,
			expected:      22*3600,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRemainingSeconds(tt.now, deadline, tt.travelMinutes)
			if got != tt.expected {
				t.Errorf("ComputeRemainingSeconds() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestComputeRemainingSeconds_CrossesMidnight(t *testing.T) {
	// Deadline just after midnight, leave instant the evening before.
	deadline := domain.Deadline{Hour: 0, Minute: 30}

	got := ComputeRemainingSeconds(at(23, 30, 0), deadline, 45)
	if got != 15*60 {
		t.Errorf("remaining = %d, want %d", got, 15*60)
	}

	leaveAt, deadlineAt := LeaveInstant(at(23, 30, 0), deadline, 45*time.Minute, RolloverAtDeadline)
	wantDeadline := time.Date(2024, time.March, 16, 0, 30, 0, 0, kst)
	if !deadlineAt.Equal(wantDeadline) {
		t.Errorf("deadlineAt = %v, want %v", deadlineAt, wantDeadline)
	}
	if !leaveAt.Equal(at(23, 45, 0)) {
		t.Errorf("leaveAt = %v, want %v", leaveAt, at(23, 45, 0))
	}
}

func TestNextOccurrence(t *testing.T) {
	deadline := domain.Deadline{Hour: 23, Minute: 45}

	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{name: "before deadline", now: at(12, 0, 0), expected: at(23, 45, 0)},
		{name: "at deadline", now: at(23, 45, 0), expected: at(23, 45, 0)},
		{name: "one nanosecond late", now: at(23, 45, 0).Add(time.Nanosecond), expected: at(23, 45, 0).AddDate(0, 0, 1)},
		{name: "after deadline", now: at(23, 59, 59), expected: at(23, 45, 0).AddDate(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.now, deadline)
			if !got.Equal(tt.expected) {
				t.Errorf("NextOccurrence() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNextOccurrence_MonthAndYearBoundary(t *testing.T) {
	now := time.Date(2024, time.December, 31, 23, 50, 0, 0, kst)

	got := NextOccurrence(now, domain.Deadline{Hour: 23, Minute: 45})
	want := time.Date(2025, time.January, 1, 23, 45, 0, 0, kst)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestLeaveInstant_RolloverAtLeave(t *testing.T) {
	deadline := domain.Deadline{Hour: 23, Minute: 45}

	t.Run("passed leave instant moves to tomorrow", func(t *testing.T) {
		now := at(23, 36, 0)
		leaveAt, deadlineAt := LeaveInstant(now, deadline, 10*time.Minute, RolloverAtLeave)

		wantLeave := at(23, 35, 0).AddDate(0, 0, 1)
		if !leaveAt.Equal(wantLeave) {
			t.Errorf("leaveAt = %v, want %v", leaveAt, wantLeave)
		}
		if !deadlineAt.Equal(at(23, 45, 0).AddDate(0, 0, 1)) {
			t.Errorf("deadlineAt = %v", deadlineAt)
		}

		remaining := RemainingSeconds(now, leaveAt)
		if remaining != 86340 {
			t.Errorf("remaining = %d, want 86340", remaining)
		}
		if NewDisplay(remaining, DefaultDisplayWindow).IsMissed {
			t.Error("expected not missed")
		}
	})

	t.Run("exactly at leave instant is zero", func(t *testing.T) {
		now := at(23, 35, 0)
		leaveAt, _ := LeaveInstant(now, deadline, 10*time.Minute, RolloverAtLeave)
		if got := RemainingSeconds(now, leaveAt); got != 0 {
			t.Errorf("remaining = %d, want 0", got)
		}
	})

	t.Run("travel longer than a day still lands in the future", func(t *testing.T) {
		now := at(12, 0, 0)
		leaveAt, _ := LeaveInstant(now, deadline, 50*time.Hour, RolloverAtLeave)
		if leaveAt.Before(now) {
			t.Errorf("leaveAt %v is before now %v", leaveAt, now)
		}
		if leaveAt.Sub(now) > 24*time.Hour {
			t.Errorf("leaveAt %v is more than a day ahead", leaveAt)
		}
	})
}

func TestComputeRemainingSeconds_Properties(t *testing.T) {
	travels := []int{0, 1, 10, 45, 90, 600, 1440, 3000}
	deadlines := []domain.Deadline{
		{Hour: 0, Minute: 0},
		{Hour: 0, Minute: 30},
		{Hour: 12, Minute: 0},
		{Hour: 23, Minute: 45},
		{Hour: 23, Minute: 59},
	}

	start := at(0, 0, 0)
	for minute := 0; minute < 24*60; minute += 7 {
		now := start.Add(time.Duration(minute)*time.Minute + 13*time.Second)
		for _, d := range deadlines {
			for _, travel := range travels {
				first := ComputeRemainingSeconds(now, d, travel)
				second := ComputeRemainingSeconds(now, d, travel)

				if first < 0 {
					t.Fatalf("negative remaining %d for now=%v deadline=%s travel=%d", first, now, d, travel)
				}
				if first != second {
					t.Fatalf("not idempotent: %d != %d", first, second)
				}

				_, deadlineAt := LeaveInstant(now, d, time.Duration(travel)*time.Minute, RolloverAtDeadline)
				if deadlineAt.Before(now) {
					t.Fatalf("deadline resolved to the past: %v < %v", deadlineAt, now)
				}
				if deadlineAt.Sub(now) > 24*time.Hour {
					t.Fatalf("deadline more than a day ahead: %v", deadlineAt)
				}

				today := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
				if today.Before(now) && deadlineAt.Day() == now.Day() {
					t.Fatalf("passed deadline %s resolved to today at now=%v", d, now)
				}
			}
		}
	}
}

func TestNewDisplay(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		expected  Display
	}{
		{
			name:      "zero is missed",
			remaining: 0,
			expected:  Display{IsMissed: true, ProgressPercent: 100},
		},
		{
			name:      "urgent boundary is inclusive",
			remaining: 600,
			expected:  Display{Minutes: 10, IsUrgent: true, ProgressPercent: (14400.0 - 600) / 14400 * 100},
		},
		{
			name:      "just above threshold is not urgent",
			remaining: 601,
			expected:  Display{Minutes: 10, Seconds: 1, ProgressPercent: (14400.0 - 601) / 14400 * 100},
		},
		{
			name:      "hours minutes seconds split",
			remaining: 3*3600 + 25*60 + 7,
			expected:  Display{Hours: 3, Minutes: 25, Seconds: 7, ProgressPercent: (14400.0 - 12307) / 14400 * 100},
		},
		{
			name:      "beyond window clamps progress to zero",
			remaining: 86340,
			expected:  Display{Hours: 23, Minutes: 59, ProgressPercent: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDisplay(tt.remaining, DefaultDisplayWindow)
			if got != tt.expected {
				t.Errorf("NewDisplay(%d) = %+v, want %+v", tt.remaining, got, tt.expected)
			}
		})
	}
}

func TestParseRollover(t *testing.T) {
	if r, ok := ParseRollover("deadline"); !ok || r != RolloverAtDeadline {
		t.Errorf("ParseRollover(deadline) = %v, %v", r, ok)
	}
	if r, ok := ParseRollover("leave"); !ok || r != RolloverAtLeave {
		t.Errorf("ParseRollover(leave) = %v, %v", r, ok)
	}
	if _, ok := ParseRollover("never"); ok {
		t.Error("expected unknown rollover to be rejected")
	}
}
