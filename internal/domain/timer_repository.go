package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=timer_repository.go -destination=timer_repository_mock.go -package=domain

type TimerRepository interface {
	SaveTimer(ctx context.Context, reg *TimerRegistration) error
	GetTimer(ctx context.Context, id string) (*TimerRegistration, error)
	ListTimers(ctx context.Context) ([]*TimerRegistration, error)
	DeleteTimer(ctx context.Context, id string) error
	// MarkNotified records that the alert for tag was delivered. It returns
	// false when the tag had already been marked.
	MarkNotified(ctx context.Context, tag string, ttl time.Duration) (bool, error)
}
