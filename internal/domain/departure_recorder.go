package domain

import (
	"context"
	"time"
)

const (
	DepartureEventTransition = "transition"
	DepartureEventNotified   = "notified"
	DepartureEventNotifyFail = "notify_failed"
	DepartureEventDuplicate  = "notify_duplicate"
)

type DepartureEventRecord struct {
	TimerID          string
	Event            string
	FromPhase        string
	ToPhase          string
	SecondsRemaining int64
	LeaveAt          time.Time
	RecordedAt       time.Time
}

type DepartureRecorder interface {
	RecordEvents(ctx context.Context, records []DepartureEventRecord) error
	Close() error
}
