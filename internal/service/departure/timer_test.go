package departure

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/testutil"
)

var lastTrain = domain.TimerConfig{
	Deadline:             domain.Deadline{Hour: 23, Minute: 45},
	TravelMinutes:        10,
	NotificationsEnabled: true,
	Label:                "Line 7",
}

type timerFixture struct {
	clock     *testutil.FakeClock
	scheduler *testutil.ManualScheduler
	timer     *Timer
}

func newTimerFixture(t *testing.T, now time.Time, cfg domain.TimerConfig, opts ...Option) *timerFixture {
	t.Helper()

	clock := testutil.NewFakeClock(now)
	scheduler := testutil.NewManualScheduler()

	base := []Option{WithClock(clock), WithScheduler(scheduler)}
	timer, err := NewTimer("timer-1", cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewTimer() unexpected error: %v", err)
	}

	return &timerFixture{clock: clock, scheduler: scheduler, timer: timer}
}

// run advances the clock one second at a time, firing the scheduler after each step.
func (f *timerFixture) run(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += time.Second {
		f.clock.Advance(time.Second)
		f.scheduler.Fire()
	}
}

func TestNewTimer_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.TimerConfig
		wantErr error
	}{
		{
			name:    "minute out of range",
			cfg:     domain.TimerConfig{Deadline: domain.Deadline{Hour: 23, Minute: 60}},
			wantErr: domain.ErrInvalidDeadline,
		},
		{
			name:    "hour out of range",
			cfg:     domain.TimerConfig{Deadline: domain.Deadline{Hour: 24, Minute: 0}},
			wantErr: domain.ErrInvalidDeadline,
		},
		{
			name:    "negative travel",
			cfg:     domain.TimerConfig{Deadline: domain.Deadline{Hour: 23, Minute: 0}, TravelMinutes: -5},
			wantErr: domain.ErrNegativeTravel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer, err := NewTimer("timer-1", tt.cfg)
			if timer != nil {
				t.Errorf("expected nil timer, got %v", timer)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewTimer() error = %v, want %v", err, tt.wantErr)
			}
			if !domain.IsConfigurationError(err) {
				t.Errorf("expected ConfigurationError, got %T", err)
			}
		})
	}
}

func TestTimer_InitialStateFromFirstComputation(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantPhase domain.Phase
		wantLeft  int64
	}{
		{name: "counting", now: at(22, 0, 0), wantPhase: domain.PhaseCounting, wantLeft: 95 * 60},
		{name: "urgent", now: at(23, 25, 0), wantPhase: domain.PhaseUrgent, wantLeft: 600},
		{name: "missed", now: at(23, 40, 0), wantPhase: domain.PhaseMissed, wantLeft: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lastTrain
			cfg.NotificationsEnabled = false
			f := newTimerFixture(t, tt.now, cfg)

			if err := f.timer.Start(context.Background()); err != nil {
				t.Fatalf("Start() unexpected error: %v", err)
			}
			defer f.timer.Stop()

			snap := f.timer.Snapshot()
			if snap.Phase != tt.wantPhase {
				t.Errorf("Phase = %v, want %v", snap.Phase, tt.wantPhase)
			}
			if snap.State.SecondsRemaining != tt.wantLeft {
				t.Errorf("SecondsRemaining = %d, want %d", snap.State.SecondsRemaining, tt.wantLeft)
			}
			if !snap.ComputedAt.Equal(tt.now) {
				t.Errorf("ComputedAt = %v, want %v", snap.ComputedAt, tt.now)
			}
		})
	}
}

func TestTimer_NotifiesExactlyOnceWhenCrossingThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)
	sink.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n domain.Notification) error {
			if n.TimerID != "timer-1" {
				t.Errorf("TimerID = %q, want %q", n.TimerID, "timer-1")
			}
			if !n.LeaveAt.Equal(at(23, 35, 0)) {
				t.Errorf("LeaveAt = %v, want %v", n.LeaveAt, at(23, 35, 0))
			}
			if n.Tag != domain.NotificationTag("timer-1", at(23, 35, 0)) {
				t.Errorf("unexpected tag %q", n.Tag)
			}
			if n.Title == "" || !strings.Contains(n.Body, "Line 7") {
				t.Errorf("unexpected notification content: %+v", n)
			}
			return nil
		}).
		Times(1)

	f := newTimerFixture(t, at(23, 20, 0), lastTrain, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	// 23:20:00 -> 23:30:00, crossing 23:25:00 (600 seconds left).
	f.run(10 * time.Minute)

	snap := f.timer.Snapshot()
	if snap.Phase != domain.PhaseUrgent {
		t.Errorf("Phase = %v, want %v", snap.Phase, domain.PhaseUrgent)
	}
	if !snap.State.HasNotified {
		t.Error("expected HasNotified after crossing threshold")
	}
	if !snap.Display.IsUrgent {
		t.Error("expected display to be urgent")
	}
}

func TestTimer_FiresAtThresholdBoundary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)

	f := newTimerFixture(t, at(23, 24, 58), lastTrain, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	// 602 and 601 seconds left: nothing yet.
	f.run(time.Second)
	if f.timer.Snapshot().State.HasNotified {
		t.Fatal("notified above threshold")
	}

	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.run(time.Second)

	snap := f.timer.Snapshot()
	if snap.State.SecondsRemaining != 600 {
		t.Fatalf("SecondsRemaining = %d, want 600", snap.State.SecondsRemaining)
	}
	if !snap.State.HasNotified {
		t.Error("expected notification at exactly 600 seconds")
	}
}

func TestTimer_ResetsAfterMissAndFiresNextDay(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)

	var phases []domain.Phase
	hook := func(from, to domain.Phase, _ Snapshot) {
		phases = append(phases, to)
	}

	f := newTimerFixture(t, at(23, 20, 0), lastTrain, WithSink(sink), WithTransitionHook(hook))

	first := sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	// Through the leave instant into Missed.
	f.run(16 * time.Minute)

	snap := f.timer.Snapshot()
	if snap.Phase != domain.PhaseMissed {
		t.Fatalf("Phase = %v, want %v", snap.Phase, domain.PhaseMissed)
	}
	if snap.State.HasNotified {
		t.Error("expected HasNotified reset once remaining reached zero")
	}
	if !snap.Display.IsMissed {
		t.Error("expected display to be missed")
	}

	// Past the deadline the cycle moves to tomorrow.
	f.run(10 * time.Minute)
	snap = f.timer.Snapshot()
	if snap.Phase != domain.PhaseCounting {
		t.Fatalf("Phase = %v, want %v", snap.Phase, domain.PhaseCounting)
	}
	if snap.State.SecondsRemaining <= domain.WarningThresholdSeconds {
		t.Fatalf("SecondsRemaining = %d, expected next-day window", snap.State.SecondsRemaining)
	}

	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n domain.Notification) error {
			want := at(23, 35, 0).AddDate(0, 0, 1)
			if !n.LeaveAt.Equal(want) {
				t.Errorf("LeaveAt = %v, want %v", n.LeaveAt, want)
			}
			return nil
		}).
		After(first).
		Times(1)

	// Jump to tomorrow 23:20 and cross the threshold again.
	f.clock.Set(at(23, 20, 0).AddDate(0, 0, 1))
	f.scheduler.Fire()
	f.run(6 * time.Minute)

	want := []domain.Phase{
		domain.PhaseCounting,
		domain.PhaseUrgent,
		domain.PhaseMissed,
		domain.PhaseCounting,
		domain.PhaseUrgent,
	}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phases[%d] = %v, want %v", i, phases[i], want[i])
		}
	}
}

func TestTimer_NewCycleRearmsWithoutObservingZero(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	cfg := lastTrain
	cfg.TravelMinutes = 0

	f := newTimerFixture(t, at(23, 40, 0), cfg, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	if !f.timer.Snapshot().State.HasNotified {
		t.Fatal("expected notification on first urgent computation")
	}

	// The host was suspended across the deadline: the zero-second tick never ran.
	f.clock.Set(at(23, 40, 0).AddDate(0, 0, 1))
	f.scheduler.Fire()

	if !f.timer.Snapshot().State.HasNotified {
		t.Error("expected the next day's cycle to notify again")
	}
}

func TestTimer_NotificationsDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	cfg := lastTrain
	cfg.NotificationsEnabled = false

	f := newTimerFixture(t, at(23, 20, 0), cfg, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	f.run(12 * time.Minute)

	snap := f.timer.Snapshot()
	if snap.State.HasNotified {
		t.Error("HasNotified should stay false when notifications are disabled")
	}
	if !snap.Display.IsUrgent {
		t.Error("countdown should still reach urgent")
	}
}

func TestTimer_SinkFailureDoesNotStopCountdown(t *testing.T) {
	tests := []struct {
		name    string
		sinkErr error
	}{
		{name: "permission denied", sinkErr: domain.ErrNotificationUnavailable},
		{name: "transport failure", sinkErr: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			sink := domain.NewMockNotificationSink(ctrl)
			sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(tt.sinkErr).Times(1)

			var notifyErr error
			f := newTimerFixture(t, at(23, 25, 0), lastTrain,
				WithSink(sink),
				WithNotifyHook(func(_ domain.Notification, err error) { notifyErr = err }),
			)
			if err := f.timer.Start(context.Background()); err != nil {
				t.Fatalf("Start() unexpected error: %v", err)
			}
			defer f.timer.Stop()

			f.run(5 * time.Second)

			if !errors.Is(notifyErr, tt.sinkErr) {
				t.Errorf("notify hook error = %v, want %v", notifyErr, tt.sinkErr)
			}
			if got := f.timer.Snapshot().State.SecondsRemaining; got != 595 {
				t.Errorf("SecondsRemaining = %d, want 595", got)
			}
		})
	}
}

func TestTimer_AbsentSinkIsTolerated(t *testing.T) {
	var notifyErr error
	f := newTimerFixture(t, at(23, 25, 0), lastTrain,
		WithNotifyHook(func(_ domain.Notification, err error) { notifyErr = err }),
	)
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	f.run(3 * time.Second)

	if !errors.Is(notifyErr, domain.ErrNotificationUnavailable) {
		t.Errorf("notify hook error = %v, want ErrNotificationUnavailable", notifyErr)
	}
	if got := f.timer.Snapshot().State.SecondsRemaining; got != 597 {
		t.Errorf("SecondsRemaining = %d, want 597", got)
	}
}

func TestTimer_TickIsIdempotentForFrozenClock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	f := newTimerFixture(t, at(23, 30, 0), lastTrain, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	before := f.timer.Snapshot()
	f.scheduler.Fire()
	f.scheduler.Fire()
	after := f.timer.Snapshot()

	if before != after {
		t.Errorf("snapshot changed without clock movement:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestTimer_UpdateRecomputesImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)

	var transitions []string
	f := newTimerFixture(t, at(22, 0, 0), lastTrain,
		WithSink(sink),
		WithTransitionHook(func(from, to domain.Phase, _ Snapshot) {
			transitions = append(transitions, string(from)+"->"+string(to))
		}),
	)
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	if got := f.timer.Snapshot().Phase; got != domain.PhaseCounting {
		t.Fatalf("Phase = %v, want counting", got)
	}

	// Deadline moved so the leave instant is five minutes away: jump straight to urgent.
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	moved := lastTrain
	moved.Deadline = domain.Deadline{Hour: 22, Minute: 15}
	if err := f.timer.Update(moved); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	snap := f.timer.Snapshot()
	if snap.Phase != domain.PhaseUrgent {
		t.Errorf("Phase = %v, want urgent", snap.Phase)
	}
	if snap.State.SecondsRemaining != 300 {
		t.Errorf("SecondsRemaining = %d, want 300", snap.State.SecondsRemaining)
	}
	if snap.Config.Deadline != moved.Deadline {
		t.Errorf("Deadline = %v, want %v", snap.Config.Deadline, moved.Deadline)
	}

	// Longer travel puts the leave instant in the past: straight to missed.
	late := moved
	late.TravelMinutes = 30
	if err := f.timer.Update(late); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	snap = f.timer.Snapshot()
	if snap.Phase != domain.PhaseMissed {
		t.Errorf("Phase = %v, want missed", snap.Phase)
	}
	if snap.State.HasNotified {
		t.Error("expected HasNotified cleared when missed")
	}

	want := []string{"->counting", "counting->urgent", "urgent->missed"}
	if strings.Join(transitions, ",") != strings.Join(want, ",") {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
}

func TestTimer_UpdateWithinSameCycleKeepsNotified(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	f := newTimerFixture(t, at(23, 30, 0), lastTrain, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	relabelled := lastTrain
	relabelled.Label = "Line 2"
	if err := f.timer.Update(relabelled); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if !f.timer.Snapshot().State.HasNotified {
		t.Error("expected HasNotified to survive an update that keeps the leave instant")
	}
}

func TestTimer_UpdateRejectsInvalidConfig(t *testing.T) {
	f := newTimerFixture(t, at(22, 0, 0), lastTrain)
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	bad := lastTrain
	bad.TravelMinutes = -1
	if err := f.timer.Update(bad); !errors.Is(err, domain.ErrNegativeTravel) {
		t.Fatalf("Update() error = %v, want ErrNegativeTravel", err)
	}

	if got := f.timer.Snapshot().Config.TravelMinutes; got != lastTrain.TravelMinutes {
		t.Errorf("TravelMinutes = %d, want unchanged %d", got, lastTrain.TravelMinutes)
	}
}

func TestTimer_StopCancelsTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := domain.NewMockNotificationSink(ctrl)
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	var stoppedFrom domain.Phase
	f := newTimerFixture(t, at(23, 20, 0), lastTrain,
		WithSink(sink),
		WithTransitionHook(func(from, to domain.Phase, _ Snapshot) {
			if to == domain.PhaseStopped {
				stoppedFrom = from
			}
		}),
	)
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	if f.scheduler.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", f.scheduler.Active())
	}

	f.timer.Stop()

	if f.scheduler.Active() != 0 {
		t.Errorf("Active() = %d after Stop, want 0", f.scheduler.Active())
	}
	if stoppedFrom != domain.PhaseCounting {
		t.Errorf("stopped from %v, want counting", stoppedFrom)
	}

	before := f.timer.Snapshot()
	// Crossing the threshold after Stop must not notify.
	f.run(10 * time.Minute)
	after := f.timer.Snapshot()

	if before != after {
		t.Error("snapshot changed after Stop")
	}
	if after.Phase != domain.PhaseStopped {
		t.Errorf("Phase = %v, want stopped", after.Phase)
	}

	// Stop is idempotent and terminal.
	f.timer.Stop()
	if err := f.timer.Start(context.Background()); !errors.Is(err, domain.ErrTimerStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrTimerStopped", err)
	}
	if err := f.timer.Update(lastTrain); !errors.Is(err, domain.ErrTimerStopped) {
		t.Errorf("Update() after Stop error = %v, want ErrTimerStopped", err)
	}
}

func TestTimer_StopWithTickerScheduler(t *testing.T) {
	var ticks atomic.Int64

	timer, err := NewTimer("timer-1", lastTrain,
		WithTickInterval(2*time.Millisecond),
		WithTickHook(func(Snapshot) { ticks.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewTimer() unexpected error: %v", err)
	}

	if err := timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 5 {
		t.Fatalf("expected ticks to run, got %d", ticks.Load())
	}

	timer.Stop()
	afterStop := ticks.Load()

	time.Sleep(20 * time.Millisecond)

	if got := ticks.Load(); got != afterStop {
		t.Errorf("ticks after Stop: got %d, want %d", got, afterStop)
	}
}

func TestTimer_StartIsIdempotent(t *testing.T) {
	f := newTimerFixture(t, at(22, 0, 0), lastTrain)

	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("second Start() unexpected error: %v", err)
	}
	defer f.timer.Stop()

	if f.scheduler.Active() != 1 {
		t.Errorf("Active() = %d, want 1", f.scheduler.Active())
	}
}

func TestTimer_StopBeforeStart(t *testing.T) {
	f := newTimerFixture(t, at(22, 0, 0), lastTrain)

	f.timer.Stop()

	if err := f.timer.Start(context.Background()); !errors.Is(err, domain.ErrTimerStopped) {
		t.Errorf("Start() error = %v, want ErrTimerStopped", err)
	}
	if f.scheduler.Active() != 0 {
		t.Errorf("Active() = %d, want 0", f.scheduler.Active())
	}
}

// blockingSink holds Notify until the delivery context is cancelled.
type blockingSink struct {
	entered chan domain.Notification
}

func (s *blockingSink) Notify(ctx context.Context, n domain.Notification) error {
	s.entered <- n
	<-ctx.Done()
	return ctx.Err()
}

func TestTimer_StopReturnsAlertFromInFlightTick(t *testing.T) {
	sink := &blockingSink{entered: make(chan domain.Notification, 1)}
	f := newTimerFixture(t, at(23, 24, 58), lastTrain, WithSink(sink))
	if err := f.timer.Start(context.Background()); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		f.run(3 * time.Second)
	}()
	n := <-sink.entered

	final := f.timer.Stop()
	<-fired

	if !final.State.HasNotified {
		t.Error("final snapshot lost the in-flight alert")
	}
	if final.Phase != domain.PhaseStopped {
		t.Errorf("Phase = %v, want stopped", final.Phase)
	}
	if got := domain.NotificationTag(final.ID, final.LeaveAt); got != n.Tag {
		t.Errorf("tag from final snapshot = %q, want %q", got, n.Tag)
	}

	if again := f.timer.Stop(); again != final {
		t.Errorf("second Stop() = %+v, want %+v", again, final)
	}
}
