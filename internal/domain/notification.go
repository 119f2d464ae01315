package domain

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -source=notification.go -destination=notification_mock.go -package=domain

type Notification struct {
	TimerID    string
	Title      string
	Body       string
	Tag        string
	LeaveAt    time.Time
	DeadlineAt time.Time
}

// NotificationTag identifies one leave-instant cycle of one timer.
func NotificationTag(timerID string, leaveAt time.Time) string {
	return fmt.Sprintf("last-train:%s:%d", timerID, leaveAt.Unix())
}

// NotificationSink delivers departure alerts. Implementations return
// ErrNotificationUnavailable when delivery is disabled or denied.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationRetractor is implemented by sinks that can withdraw an alert
// that has been accepted but not yet delivered.
type NotificationRetractor interface {
	Retract(ctx context.Context, tag string) error
}
