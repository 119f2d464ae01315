package notifier

import (
	"context"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

type noopSink struct{}

// NewNoopSink returns a sink that reports every alert as undeliverable.
func NewNoopSink() domain.NotificationSink {
	return noopSink{}
}

func (noopSink) Notify(_ context.Context, _ domain.Notification) error {
	return domain.ErrNotificationUnavailable
}
