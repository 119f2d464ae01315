package departure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

const (
	DefaultTickInterval  = time.Second
	defaultNotifyTimeout = 10 * time.Second
)

type Snapshot struct {
	ID         string             `json:"id"`
	Config     domain.TimerConfig `json:"-"`
	State      domain.TimerState  `json:"state"`
	Phase      domain.Phase       `json:"phase"`
	LeaveAt    time.Time          `json:"leave_at"`
	DeadlineAt time.Time          `json:"deadline_at"`
	Display    Display            `json:"display"`
	ComputedAt time.Time          `json:"computed_at"`
}

// TransitionHook observes phase changes. from is empty for the first computation.
type TransitionHook func(from, to domain.Phase, snap Snapshot)

// TickHook observes every recomputation.
type TickHook func(snap Snapshot)

// NotifyHook observes each alert attempt and the sink's result.
type NotifyHook func(n domain.Notification, err error)

type Option func(*Timer)

func WithClock(clock domain.Clock) Option {
	return func(t *Timer) { t.clock = clock }
}

func WithScheduler(scheduler Scheduler) Option {
	return func(t *Timer) { t.scheduler = scheduler }
}

func WithSink(sink domain.NotificationSink) Option {
	return func(t *Timer) { t.sink = sink }
}

func WithTickInterval(interval time.Duration) Option {
	return func(t *Timer) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

func WithDisplayWindow(window time.Duration) Option {
	return func(t *Timer) {
		if window > 0 {
			t.displayWindow = window
		}
	}
}

func WithRollover(rollover Rollover) Option {
	return func(t *Timer) {
		if rollover != "" {
			t.rollover = rollover
		}
	}
}

func WithTransitionHook(hook TransitionHook) Option {
	return func(t *Timer) { t.onTransition = hook }
}

func WithTickHook(hook TickHook) Option {
	return func(t *Timer) { t.onTick = hook }
}

func WithNotifyHook(hook NotifyHook) Option {
	return func(t *Timer) { t.onNotify = hook }
}

// Timer counts down to the leave instant of one recurring deadline.
// Each Timer owns its scheduled tick; Stop cancels it deterministically.
type Timer struct {
	id            string
	clock         domain.Clock
	scheduler     Scheduler
	sink          domain.NotificationSink
	interval      time.Duration
	displayWindow time.Duration
	rollover      Rollover
	notifyTimeout time.Duration

	onTransition TransitionHook
	onTick       TickHook
	onNotify     NotifyHook

	// lifecycle serializes Start, Update and Stop. Ticks never take it.
	lifecycle sync.Mutex

	mu              sync.Mutex
	cfg             domain.TimerConfig
	state           domain.TimerState
	phase           domain.Phase
	leaveAt         time.Time
	deadlineAt      time.Time
	notifiedLeaveAt time.Time
	computedAt      time.Time
	started         bool
	stopped         bool
	ctx             context.Context
	cancelCtx       context.CancelFunc
	cancelTick      func()
}

func NewTimer(id string, cfg domain.TimerConfig, opts ...Option) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Timer{
		id:            id,
		cfg:           cfg,
		clock:         domain.RealClock{},
		scheduler:     NewTickerScheduler(),
		interval:      DefaultTickInterval,
		displayWindow: DefaultDisplayWindow,
		rollover:      RolloverAtDeadline,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

func (t *Timer) ID() string {
	return t.id
}

// Start performs the first computation and schedules the recurring tick.
// Starting a started timer is a no-op; a stopped timer cannot be restarted.
func (t *Timer) Start(ctx context.Context) error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return domain.ErrTimerStopped
	}
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.ctx, t.cancelCtx = context.WithCancel(context.WithoutCancel(ctx))
	t.mu.Unlock()

	slog.DebugContext(ctx, "departure timer started",
		slog.String("timer_id", t.id),
		slog.String("deadline", t.cfg.Deadline.String()),
		slog.Int("travel_minutes", t.cfg.TravelMinutes),
		slog.String("rollover", string(t.rollover)),
	)

	t.tick()

	cancel := t.scheduler.Every(t.interval, t.tick)

	t.mu.Lock()
	t.cancelTick = cancel
	t.mu.Unlock()

	return nil
}

// Update swaps the inputs and recomputes immediately. Invalid input is
// rejected and leaves the running countdown untouched.
func (t *Timer) Update(cfg domain.TimerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return domain.ErrTimerStopped
	}
	t.cfg = cfg
	started := t.started
	t.mu.Unlock()

	if started {
		t.tick()
	}

	return nil
}

// Stop cancels the recurring tick and returns the final snapshot, which
// includes any alert emitted by a tick still in flight when Stop was called.
// No tick or notification runs after Stop returns.
func (t *Timer) Stop() Snapshot {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if t.stopped {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap
	}
	t.stopped = true
	from := t.phase
	t.phase = domain.PhaseStopped
	cancelTick := t.cancelTick
	cancelCtx := t.cancelCtx
	t.cancelTick = nil
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if cancelCtx != nil {
		cancelCtx()
	}
	if cancelTick != nil {
		cancelTick()
	}

	slog.Debug("departure timer stopped", slog.String("timer_id", t.id))

	if t.onTransition != nil && from != "" {
		t.onTransition(from, domain.PhaseStopped, snap)
	}

	return snap
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.snapshotLocked()
}

func (t *Timer) tick() {
	now := t.clock.Now()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	from := t.phase
	pending := t.evaluateLocked(now)
	snap := t.snapshotLocked()
	ctx := t.ctx
	t.mu.Unlock()

	if from != snap.Phase {
		slog.DebugContext(ctx, "departure timer phase changed",
			slog.String("timer_id", t.id),
			slog.String("from", string(from)),
			slog.String("to", string(snap.Phase)),
			slog.Int64("seconds_remaining", snap.State.SecondsRemaining),
		)
		if t.onTransition != nil {
			t.onTransition(from, snap.Phase, snap)
		}
	}

	if pending != nil {
		t.deliver(ctx, *pending)
	}

	if t.onTick != nil {
		t.onTick(snap)
	}
}

// evaluateLocked applies one step of the tick protocol and returns the
// alert to emit, if any.
func (t *Timer) evaluateLocked(now time.Time) *domain.Notification {
	leaveAt, deadlineAt := LeaveInstant(now, t.cfg.Deadline, t.cfg.TravelDuration(), t.rollover)
	remaining := RemainingSeconds(now, leaveAt)

	// A new cycle re-arms the alert even if the zero-second tick was never observed.
	if t.state.HasNotified && !leaveAt.Equal(t.notifiedLeaveAt) {
		t.state.HasNotified = false
		t.notifiedLeaveAt = time.Time{}
	}

	t.state.SecondsRemaining = remaining
	t.leaveAt = leaveAt
	t.deadlineAt = deadlineAt
	t.computedAt = now
	t.phase = domain.PhaseFor(remaining)

	var pending *domain.Notification
	if t.cfg.NotificationsEnabled && !t.state.HasNotified &&
		remaining > 0 && remaining <= domain.WarningThresholdSeconds {
		t.state.HasNotified = true
		t.notifiedLeaveAt = leaveAt
		n := t.notificationLocked(remaining)
		pending = &n
	}

	if remaining == 0 {
		t.state.HasNotified = false
		t.notifiedLeaveAt = time.Time{}
	}

	return pending
}

func (t *Timer) notificationLocked(remaining int64) domain.Notification {
	minutes := (remaining + 59) / 60
	subject := "the last train"
	if t.cfg.Label != "" {
		subject = fmt.Sprintf("the last %s train", t.cfg.Label)
	}

	return domain.Notification{
		TimerID: t.id,
		Title:   "Time to leave",
		Body: fmt.Sprintf("Leave within %d min (by %s) to catch %s at %s.",
			minutes, t.leaveAt.Format("15:04"), subject, t.cfg.Deadline.String()),
		Tag:        domain.NotificationTag(t.id, t.leaveAt),
		LeaveAt:    t.leaveAt,
		DeadlineAt: t.deadlineAt,
	}
}

// deliver hands the alert to the sink. Sink failures never affect the countdown.
func (t *Timer) deliver(ctx context.Context, n domain.Notification) {
	var err error
	if t.sink == nil {
		err = domain.ErrNotificationUnavailable
	} else {
		notifyCtx, cancel := context.WithTimeout(ctx, t.notifyTimeout)
		err = t.sink.Notify(notifyCtx, n)
		cancel()
	}

	switch {
	case err == nil:
		slog.InfoContext(ctx, "departure notification sent",
			slog.String("timer_id", t.id),
			slog.String("tag", n.Tag),
			slog.Time("leave_at", n.LeaveAt),
		)
	case errors.Is(err, domain.ErrNotificationDuplicate):
		slog.InfoContext(ctx, "departure notification already delivered",
			slog.String("timer_id", t.id),
			slog.String("tag", n.Tag),
		)
	case errors.Is(err, domain.ErrNotificationUnavailable):
		slog.DebugContext(ctx, "departure notification skipped",
			slog.String("timer_id", t.id),
			slog.String("reason", err.Error()),
		)
	default:
		slog.WarnContext(ctx, "departure notification failed",
			slog.String("timer_id", t.id),
			slog.String("tag", n.Tag),
			slog.String("error", err.Error()),
		)
	}

	if t.onNotify != nil {
		t.onNotify(n, err)
	}
}

func (t *Timer) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         t.id,
		Config:     t.cfg,
		State:      t.state,
		Phase:      t.phase,
		LeaveAt:    t.leaveAt,
		DeadlineAt: t.deadlineAt,
		Display:    NewDisplay(t.state.SecondsRemaining, t.displayWindow),
		ComputedAt: t.computedAt,
	}
}
