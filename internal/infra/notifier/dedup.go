package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

// DedupSink suppresses repeated alerts for the same tag across restarts
// and replicas. A marker store failure lets the alert through.
type DedupSink struct {
	next domain.NotificationSink
	repo domain.TimerRepository
	ttl  time.Duration
}

var (
	_ domain.NotificationSink      = (*DedupSink)(nil)
	_ domain.NotificationRetractor = (*DedupSink)(nil)
)

func NewDedupSink(next domain.NotificationSink, repo domain.TimerRepository, ttl time.Duration) *DedupSink {
	return &DedupSink{
		next: next,
		repo: repo,
		ttl:  ttl,
	}
}

func (s *DedupSink) Notify(ctx context.Context, n domain.Notification) error {
	first, err := s.repo.MarkNotified(ctx, n.Tag, s.ttl)
	if err != nil {
		slog.WarnContext(ctx, "failed to record notified marker",
			slog.String("timer_id", n.TimerID),
			slog.String("tag", n.Tag),
			slog.String("error", err.Error()),
		)
	} else if !first {
		slog.DebugContext(ctx, "departure notification already delivered",
			slog.String("timer_id", n.TimerID),
			slog.String("tag", n.Tag),
		)
		return domain.ErrNotificationDuplicate
	}

	return s.next.Notify(ctx, n)
}

func (s *DedupSink) Retract(ctx context.Context, tag string) error {
	if r, ok := s.next.(domain.NotificationRetractor); ok {
		return r.Retract(ctx, tag)
	}
	return nil
}
