package domain

import (
	"context"
)

type StepKind string

const (
	StepWalk   StepKind = "walk"
	StepSubway StepKind = "subway"
	StepBus    StepKind = "bus"
)

type RouteStep struct {
	Kind            StepKind `json:"kind"`
	Line            string   `json:"line,omitempty"`
	LineColor       string   `json:"line_color,omitempty"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	DurationMinutes int      `json:"duration_minutes"`
}

type RouteInfo struct {
	Steps        []RouteStep `json:"steps"`
	TotalMinutes int         `json:"total_minutes"`
	LastTrain    Deadline    `json:"last_train"`
	DistanceKm   float64     `json:"distance_km"`
	TaxiFare     int         `json:"taxi_fare"`
}

// RouteSource plans a commute between two free-form place names.
type RouteSource interface {
	Plan(ctx context.Context, from, to string) (*RouteInfo, error)
}

// TimerConfig derives the countdown inputs from a planned route.
func (r *RouteInfo) TimerConfig(label string, notificationsEnabled bool) TimerConfig {
	return TimerConfig{
		Deadline:             r.LastTrain,
		TravelMinutes:        r.TotalMinutes,
		NotificationsEnabled: notificationsEnabled,
		Label:                label,
	}
}
