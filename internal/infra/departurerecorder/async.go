package departurerecorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

const (
	DefaultBufferSize = 1024

	asyncBatchSize     = 100
	asyncFlushInterval = time.Second
	asyncWriteTimeout  = 5 * time.Second
)

// AsyncRecorder queues events and writes them in batches on its own
// goroutine, so callers on a timer tick never wait on the backend.
// Events arriving while the queue is full are dropped and logged.
type AsyncRecorder struct {
	next   domain.DepartureRecorder
	events chan domain.DepartureEventRecord
	syncs  chan chan struct{}
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

var _ domain.DepartureRecorder = (*AsyncRecorder)(nil)

func NewAsyncRecorder(next domain.DepartureRecorder, bufferSize int) *AsyncRecorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	r := &AsyncRecorder{
		next:   next,
		events: make(chan domain.DepartureEventRecord, bufferSize),
		syncs:  make(chan chan struct{}),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go r.run()

	return r
}

// RecordEvents enqueues records without blocking. The returned error is
// always nil; write failures are logged by the writer goroutine.
func (r *AsyncRecorder) RecordEvents(ctx context.Context, records []domain.DepartureEventRecord) error {
	for _, record := range records {
		select {
		case <-r.quit:
			slog.WarnContext(ctx, "departure event recorder closed, event dropped",
				slog.String("timer_id", record.TimerID),
				slog.String("event", record.Event),
			)
			return nil
		default:
		}

		select {
		case r.events <- record:
		default:
			slog.WarnContext(ctx, "departure event queue full, event dropped",
				slog.String("timer_id", record.TimerID),
				slog.String("event", record.Event),
			)
		}
	}

	return nil
}

// Sync blocks until every event enqueued before the call has been written.
func (r *AsyncRecorder) Sync() {
	ack := make(chan struct{})
	select {
	case r.syncs <- ack:
		<-ack
	case <-r.done:
	}
}

// Close writes the remaining queued events and closes the wrapped recorder.
func (r *AsyncRecorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.quit)
		<-r.done
		r.closeErr = r.next.Close()
	})
	return r.closeErr
}

func (r *AsyncRecorder) run() {
	defer close(r.done)

	ticker := time.NewTicker(asyncFlushInterval)
	defer ticker.Stop()

	batch := make([]domain.DepartureEventRecord, 0, asyncBatchSize)
	for {
		select {
		case record := <-r.events:
			batch = append(batch, record)
			if len(batch) >= asyncBatchSize {
				batch = r.write(batch)
			}
		case <-ticker.C:
			batch = r.write(batch)
		case ack := <-r.syncs:
			batch = r.write(r.drain(batch))
			close(ack)
		case <-r.quit:
			r.write(r.drain(batch))
			return
		}
	}
}

func (r *AsyncRecorder) drain(batch []domain.DepartureEventRecord) []domain.DepartureEventRecord {
	for {
		select {
		case record := <-r.events:
			batch = append(batch, record)
		default:
			return batch
		}
	}
}

// write flushes batch and returns a fresh one; the backend may keep the slice.
func (r *AsyncRecorder) write(batch []domain.DepartureEventRecord) []domain.DepartureEventRecord {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
	defer cancel()

	if err := r.next.RecordEvents(ctx, batch); err != nil {
		slog.WarnContext(ctx, "failed to record departure events",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}

	return make([]domain.DepartureEventRecord, 0, asyncBatchSize)
}
