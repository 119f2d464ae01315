package departurerecorder

import (
	"context"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.DepartureRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordEvents(_ context.Context, _ []domain.DepartureEventRecord) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
