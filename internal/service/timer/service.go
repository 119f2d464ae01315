package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/observability/metrics"
	"github.com/KasumiMercury/primind-last-train/internal/observability/tracing"
	"github.com/KasumiMercury/primind-last-train/internal/service/departure"
)

type Option func(*Service)

func WithClock(clock domain.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithSchedulerFactory supplies the scheduler each new timer ticks on.
func WithSchedulerFactory(factory func() departure.Scheduler) Option {
	return func(s *Service) { s.newScheduler = factory }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// Service owns the running departure timers and keeps them in step with
// their persisted registrations.
type Service struct {
	repo             domain.TimerRepository
	sink             domain.NotificationSink
	recorder         domain.DepartureRecorder
	routes           domain.RouteSource
	departureMetrics *metrics.DepartureMetrics
	settings         Settings

	clock        domain.Clock
	newScheduler func() departure.Scheduler
	newID        func() string

	// baseCtx carries values into timer ticks; it is never cancelled.
	baseCtx context.Context

	mu     sync.RWMutex
	timers map[string]*entry
}

func NewService(
	repo domain.TimerRepository,
	sink domain.NotificationSink,
	recorder domain.DepartureRecorder,
	routes domain.RouteSource,
	departureMetrics *metrics.DepartureMetrics,
	settings Settings,
	opts ...Option,
) *Service {
	s := &Service{
		repo:             repo,
		sink:             sink,
		recorder:         recorder,
		routes:           routes,
		departureMetrics: departureMetrics,
		settings:         settings,
		clock:            domain.RealClock{},
		newScheduler:     func() departure.Scheduler { return departure.NewTickerScheduler() },
		newID:            uuid.NewString,
		baseCtx:          context.Background(),
		timers:           make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, cfg domain.TimerConfig) (departure.Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return departure.Snapshot{}, err
	}

	reg := domain.NewTimerRegistration(s.newID(), cfg, s.clock.Now())

	ctx, span := tracing.StartTimerOperationSpan(ctx, "create", reg.ID)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if err = s.repo.SaveTimer(ctx, reg); err != nil {
		slog.ErrorContext(ctx, "failed to save timer",
			slog.String("timer_id", reg.ID),
			slog.String("error", err.Error()),
		)
		return departure.Snapshot{}, fmt.Errorf("save timer: %w", err)
	}

	var snap departure.Snapshot
	snap, err = s.start(ctx, reg)
	if err != nil {
		if delErr := s.repo.DeleteTimer(ctx, reg.ID); delErr != nil {
			slog.WarnContext(ctx, "failed to roll back timer registration",
				slog.String("timer_id", reg.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return departure.Snapshot{}, err
	}

	slog.InfoContext(ctx, "departure timer created",
		slog.String("timer_id", reg.ID),
		slog.String("deadline", cfg.Deadline.String()),
		slog.Int("travel_minutes", cfg.TravelMinutes),
		slog.Bool("notifications_enabled", cfg.NotificationsEnabled),
	)

	return snap, nil
}

// PlanRoute asks the route source for a commute between two places.
func (s *Service) PlanRoute(ctx context.Context, from, to string) (*domain.RouteInfo, error) {
	if s.routes == nil {
		return nil, fmt.Errorf("%w: no route source configured", domain.ErrInvalidRoute)
	}

	info, err := s.routes.Plan(ctx, from, to)
	if s.departureMetrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.departureMetrics.RecordRoutePlanned(ctx, outcome)
	}
	if err != nil {
		return nil, err
	}

	return info, nil
}

// CreateFromRoute plans a route and starts a timer for its last train.
func (s *Service) CreateFromRoute(ctx context.Context, from, to string, notificationsEnabled bool) (*RouteTimer, error) {
	info, err := s.PlanRoute(ctx, from, to)
	if err != nil {
		return nil, err
	}

	label := ""
	for _, step := range info.Steps {
		if step.Kind == domain.StepSubway {
			label = step.Line
			break
		}
	}

	snap, err := s.Create(ctx, info.TimerConfig(label, notificationsEnabled))
	if err != nil {
		return nil, err
	}

	return &RouteTimer{Route: info, Timer: snap}, nil
}

func (s *Service) Get(_ context.Context, id string) (departure.Snapshot, error) {
	s.mu.RLock()
	e, ok := s.timers[id]
	s.mu.RUnlock()

	if !ok {
		return departure.Snapshot{}, domain.ErrTimerNotFound
	}

	return e.timer.Snapshot(), nil
}

// List returns snapshots of every running timer, oldest first.
func (s *Service) List(_ context.Context) []departure.Snapshot {
	type listed struct {
		timer *departure.Timer
		reg   *domain.TimerRegistration
	}

	s.mu.RLock()
	entries := make([]listed, 0, len(s.timers))
	for _, e := range s.timers {
		entries = append(entries, listed{timer: e.timer, reg: e.reg})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].reg.CreatedAt.Equal(entries[j].reg.CreatedAt) {
			return entries[i].reg.ID < entries[j].reg.ID
		}
		return entries[i].reg.CreatedAt.Before(entries[j].reg.CreatedAt)
	})

	snaps := make([]departure.Snapshot, 0, len(entries))
	for _, e := range entries {
		snaps = append(snaps, e.timer.Snapshot())
	}
	return snaps
}

// Update replaces a timer's inputs, persists them, and recomputes at once.
// It holds the entry lock across both steps so a concurrent Stop cannot
// delete the registration in between.
func (s *Service) Update(ctx context.Context, id string, cfg domain.TimerConfig) (departure.Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return departure.Snapshot{}, err
	}

	ctx, span := tracing.StartTimerOperationSpan(ctx, "update", id)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	s.mu.RLock()
	e, ok := s.timers[id]
	s.mu.RUnlock()
	if !ok {
		err = domain.ErrTimerNotFound
		return departure.Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		err = domain.ErrTimerNotFound
		return departure.Snapshot{}, err
	}

	reg := *e.reg
	reg.Config = cfg
	reg.UpdatedAt = s.clock.Now().UTC()

	if err = s.repo.SaveTimer(ctx, &reg); err != nil {
		return departure.Snapshot{}, fmt.Errorf("save timer: %w", err)
	}

	if err = e.timer.Update(cfg); err != nil {
		// A stopped timer must not leave a registration behind for Restore.
		if delErr := s.repo.DeleteTimer(ctx, id); delErr != nil && !errors.Is(delErr, domain.ErrTimerNotFound) {
			slog.WarnContext(ctx, "failed to remove registration of stopped timer",
				slog.String("timer_id", id),
				slog.String("error", delErr.Error()),
			)
		}
		return departure.Snapshot{}, err
	}

	s.mu.Lock()
	e.reg = &reg
	s.mu.Unlock()

	slog.InfoContext(ctx, "departure timer updated",
		slog.String("timer_id", id),
		slog.String("deadline", cfg.Deadline.String()),
		slog.Int("travel_minutes", cfg.TravelMinutes),
	)

	return e.timer.Snapshot(), nil
}

// Stop cancels a timer and deletes its registration. An alert already
// handed to the sink for the current cycle is withdrawn when the sink
// supports it.
func (s *Service) Stop(ctx context.Context, id string) error {
	ctx, span := tracing.StartTimerOperationSpan(ctx, "stop", id)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	s.mu.Lock()
	e, ok := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()

	if ok {
		// Held until the registration is gone so an in-flight Update
		// either finishes first or observes the removal.
		e.mu.Lock()
		defer e.mu.Unlock()

		e.removed = true
		final := e.timer.Stop()
		if s.departureMetrics != nil {
			s.departureMetrics.TimerStopped(ctx)
		}
		s.retract(ctx, final)
	}

	err = s.repo.DeleteTimer(ctx, id)
	if errors.Is(err, domain.ErrTimerNotFound) && ok {
		err = nil
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "departure timer stopped", slog.String("timer_id", id))

	return nil
}

// Restore starts a timer for every persisted registration. Registrations
// that fail to start are logged and skipped.
func (s *Service) Restore(ctx context.Context) (int, error) {
	regs, err := s.repo.ListTimers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list timers: %w", err)
	}

	restored := 0
	for _, reg := range regs {
		s.mu.RLock()
		_, running := s.timers[reg.ID]
		s.mu.RUnlock()
		if running {
			continue
		}

		if _, err := s.start(ctx, reg); err != nil {
			slog.WarnContext(ctx, "failed to restore timer",
				slog.String("timer_id", reg.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		restored++
	}

	slog.InfoContext(ctx, "departure timers restored",
		slog.Int("restored", restored),
		slog.Int("persisted", len(regs)),
	)

	return restored, nil
}

// Shutdown stops every running timer and keeps the registrations.
func (s *Service) Shutdown() {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.timers))
	for id, e := range s.timers {
		entries = append(entries, e)
		delete(s.timers, id)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		e.removed = true
		e.timer.Stop()
		e.mu.Unlock()
		if s.departureMetrics != nil {
			s.departureMetrics.TimerStopped(s.baseCtx)
		}
	}

	slog.Info("departure timers shut down", slog.Int("count", len(entries)))
}

func (s *Service) start(ctx context.Context, reg *domain.TimerRegistration) (departure.Snapshot, error) {
	t, err := departure.NewTimer(reg.ID, reg.Config,
		departure.WithClock(s.clock),
		departure.WithScheduler(s.newScheduler()),
		departure.WithSink(s.sink),
		departure.WithTickInterval(s.settings.TickInterval),
		departure.WithDisplayWindow(s.settings.DisplayWindow),
		departure.WithRollover(s.settings.Rollover),
		departure.WithTransitionHook(s.onTransition),
		departure.WithNotifyHook(s.onNotify),
	)
	if err != nil {
		return departure.Snapshot{}, err
	}

	s.mu.Lock()
	if _, exists := s.timers[reg.ID]; exists {
		s.mu.Unlock()
		return departure.Snapshot{}, fmt.Errorf("timer %s already running", reg.ID)
	}
	s.timers[reg.ID] = &entry{timer: t, reg: reg}
	s.mu.Unlock()

	if err := t.Start(s.baseCtx); err != nil {
		s.mu.Lock()
		delete(s.timers, reg.ID)
		s.mu.Unlock()
		return departure.Snapshot{}, err
	}

	if s.departureMetrics != nil {
		s.departureMetrics.TimerStarted(ctx)
	}

	return t.Snapshot(), nil
}

func (s *Service) onTransition(from, to domain.Phase, snap departure.Snapshot) {
	ctx := s.baseCtx

	if s.departureMetrics != nil {
		fromLabel := string(from)
		if fromLabel == "" {
			fromLabel = "none"
		}
		s.departureMetrics.RecordTransition(ctx, fromLabel, string(to))
	}

	s.record(ctx, domain.DepartureEventRecord{
		TimerID:          snap.ID,
		Event:            domain.DepartureEventTransition,
		FromPhase:        string(from),
		ToPhase:          string(to),
		SecondsRemaining: snap.State.SecondsRemaining,
		LeaveAt:          snap.LeaveAt,
		RecordedAt:       s.clock.Now(),
	})
}

func (s *Service) onNotify(n domain.Notification, err error) {
	ctx := s.baseCtx

	outcome := "sent"
	event := domain.DepartureEventNotified
	switch {
	case errors.Is(err, domain.ErrNotificationDuplicate):
		outcome = "duplicate"
		event = domain.DepartureEventDuplicate
	case errors.Is(err, domain.ErrNotificationUnavailable):
		outcome = "unavailable"
		event = domain.DepartureEventNotifyFail
	case err != nil:
		outcome = "failed"
		event = domain.DepartureEventNotifyFail
	}

	if s.departureMetrics != nil {
		s.departureMetrics.RecordNotification(ctx, outcome)
	}

	now := s.clock.Now()
	s.record(ctx, domain.DepartureEventRecord{
		TimerID:          n.TimerID,
		Event:            event,
		ToPhase:          string(domain.PhaseUrgent),
		SecondsRemaining: departure.RemainingSeconds(now, n.LeaveAt),
		LeaveAt:          n.LeaveAt,
		RecordedAt:       now,
	})
}

func (s *Service) record(ctx context.Context, rec domain.DepartureEventRecord) {
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := s.recorder.RecordEvents(ctx, []domain.DepartureEventRecord{rec}); err != nil {
		slog.WarnContext(ctx, "failed to record departure event",
			slog.String("timer_id", rec.TimerID),
			slog.String("event", rec.Event),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) retract(ctx context.Context, snap departure.Snapshot) {
	retractor, ok := s.sink.(domain.NotificationRetractor)
	if !ok || !snap.State.HasNotified || snap.LeaveAt.IsZero() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, retractTimeout)
	defer cancel()

	tag := domain.NotificationTag(snap.ID, snap.LeaveAt)
	if err := retractor.Retract(ctx, tag); err != nil {
		slog.WarnContext(ctx, "failed to withdraw queued departure notification",
			slog.String("timer_id", snap.ID),
			slog.String("tag", tag),
			slog.String("error", err.Error()),
		)
	}
}

// ParseTimerConfig builds a TimerConfig from its textual request form.
func ParseTimerConfig(deadline string, travelMinutes int, notificationsEnabled bool, label string) (domain.TimerConfig, error) {
	d, err := domain.ParseDeadline(deadline)
	if err != nil {
		return domain.TimerConfig{}, err
	}

	cfg := domain.TimerConfig{
		Deadline:             d,
		TravelMinutes:        travelMinutes,
		NotificationsEnabled: notificationsEnabled,
		Label:                strings.TrimSpace(label),
	}
	if err := cfg.Validate(); err != nil {
		return domain.TimerConfig{}, err
	}

	return cfg, nil
}

// ActiveTimers reports how many timers are running.
func (s *Service) ActiveTimers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.timers)
}
