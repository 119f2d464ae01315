package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
)

const (
	timerKeyPrefix    = "lasttrain:timer:"
	timerIndexKey     = "lasttrain:timers"
	notifiedKeyPrefix = "lasttrain:notified:"
)

type timerRecord struct {
	ID                   string    `json:"id"`
	Deadline             string    `json:"deadline"`
	TravelMinutes        int       `json:"travel_minutes"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	Label                string    `json:"label,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func newTimerRecord(reg *domain.TimerRegistration) timerRecord {
	return timerRecord{
		ID:                   reg.ID,
		Deadline:             reg.Config.Deadline.String(),
		TravelMinutes:        reg.Config.TravelMinutes,
		NotificationsEnabled: reg.Config.NotificationsEnabled,
		Label:                reg.Config.Label,
		CreatedAt:            reg.CreatedAt,
		UpdatedAt:            reg.UpdatedAt,
	}
}

func (r timerRecord) toDomain() (*domain.TimerRegistration, error) {
	deadline, err := domain.ParseDeadline(r.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimerData, err)
	}

	return &domain.TimerRegistration{
		ID: r.ID,
		Config: domain.TimerConfig{
			Deadline:             deadline,
			TravelMinutes:        r.TravelMinutes,
			NotificationsEnabled: r.NotificationsEnabled,
			Label:                r.Label,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

type timerRepository struct {
	client *redis.Client
}

func NewTimerRepository(client *redis.Client) domain.TimerRepository {
	return &timerRepository{
		client: client,
	}
}

func (r *timerRepository) SaveTimer(ctx context.Context, reg *domain.TimerRegistration) error {
	if reg == nil || reg.ID == "" {
		return ErrInvalidTimerData
	}

	data, err := json.Marshal(newTimerRecord(reg))
	if err != nil {
		return ErrInvalidTimerData
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, timerKeyPrefix+reg.ID, data, 0)
	pipe.SAdd(ctx, timerIndexKey, reg.ID)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *timerRepository) GetTimer(ctx context.Context, id string) (*domain.TimerRegistration, error) {
	data, err := r.client.Get(ctx, timerKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTimerNotFound
		}
		return nil, err
	}

	var record timerRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, ErrInvalidTimerData
	}

	return record.toDomain()
}

// ListTimers returns every registration ordered by creation time. Index
// entries whose record has gone missing are skipped.
func (r *timerRepository) ListTimers(ctx context.Context) ([]*domain.TimerRegistration, error) {
	ids, err := r.client.SMembers(ctx, timerIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.TimerRegistration{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, timerKeyPrefix+id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	regs := make([]*domain.TimerRegistration, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}

		var record timerRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, ErrInvalidTimerData
		}

		reg, err := record.toDomain()
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})

	return regs, nil
}

func (r *timerRepository) DeleteTimer(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	deleted := pipe.Del(ctx, timerKeyPrefix+id)
	pipe.SRem(ctx, timerIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if deleted.Val() == 0 {
		return domain.ErrTimerNotFound
	}

	return nil
}

func (r *timerRepository) MarkNotified(ctx context.Context, tag string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, notifiedKeyPrefix+tag, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}
