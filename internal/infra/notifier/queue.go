package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-last-train/internal/observability/tracing"
)

const departureTaskType = "last_train_departure"

// QueueSink hands each alert to the task queue, which delivers it to the
// push endpoint. The queue task id is derived from the notification tag.
type QueueSink struct {
	queue taskqueue.TaskQueue
}

var (
	_ domain.NotificationSink      = (*QueueSink)(nil)
	_ domain.NotificationRetractor = (*QueueSink)(nil)
)

func NewQueueSink(queue taskqueue.TaskQueue) *QueueSink {
	return &QueueSink{queue: queue}
}

func (s *QueueSink) Notify(ctx context.Context, n domain.Notification) error {
	ctx, span := tracing.StartNotificationSpan(ctx, n.TimerID, n.LeaveAt)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	task := &taskqueue.NotificationTask{
		TaskID:     taskqueue.TaskIDForTag(n.Tag),
		TimerID:    n.TimerID,
		Title:      n.Title,
		Body:       n.Body,
		Tag:        n.Tag,
		LeaveAt:    n.LeaveAt,
		DeadlineAt: n.DeadlineAt,
		TaskType:   departureTaskType,
	}

	resp, err := s.queue.RegisterNotification(ctx, task)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskAlreadyExists) {
			slog.DebugContext(ctx, "departure task already queued",
				slog.String("timer_id", n.TimerID),
				slog.String("task_id", task.TaskID),
			)
			err = nil
			return nil
		}
		err = fmt.Errorf("register departure task: %w", err)
		return err
	}

	slog.DebugContext(ctx, "departure task queued",
		slog.String("timer_id", n.TimerID),
		slog.String("task_name", resp.Name),
	)

	return nil
}

func (s *QueueSink) Retract(ctx context.Context, tag string) error {
	return s.queue.DeleteTask(ctx, taskqueue.TaskIDForTag(tag))
}
