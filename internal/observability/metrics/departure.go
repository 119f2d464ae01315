package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	departureMeterName = "departure.service"
)

type DepartureMetrics struct {
	notifications metric.Int64Counter
	transitions   metric.Int64Counter
	activeTimers  metric.Int64UpDownCounter
	routesPlanned metric.Int64Counter
}

func NewDepartureMetrics() (*DepartureMetrics, error) {
	meter := otel.Meter(departureMeterName)

	notifications, err := meter.Int64Counter(
		"departure_notifications_total",
		metric.WithDescription("Departure alerts attempted, by outcome"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"departure_phase_transitions_total",
		metric.WithDescription("Countdown phase transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	activeTimers, err := meter.Int64UpDownCounter(
		"departure_active_timers",
		metric.WithDescription("Running departure timers"),
		metric.WithUnit("{timer}"),
	)
	if err != nil {
		return nil, err
	}

	routesPlanned, err := meter.Int64Counter(
		"departure_routes_planned_total",
		metric.WithDescription("Routes planned, by outcome"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return nil, err
	}

	return &DepartureMetrics{
		notifications: notifications,
		transitions:   transitions,
		activeTimers:  activeTimers,
		routesPlanned: routesPlanned,
	}, nil
}

func (m *DepartureMetrics) RecordNotification(ctx context.Context, outcome string) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *DepartureMetrics) RecordTransition(ctx context.Context, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *DepartureMetrics) TimerStarted(ctx context.Context) {
	m.activeTimers.Add(ctx, 1)
}

func (m *DepartureMetrics) TimerStopped(ctx context.Context) {
	m.activeTimers.Add(ctx, -1)
}

func (m *DepartureMetrics) RecordRoutePlanned(ctx context.Context, outcome string) {
	m.routesPlanned.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
