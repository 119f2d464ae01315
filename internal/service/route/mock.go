package route

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/observability/tracing"
)

type subwayLine struct {
	name  string
	color string
}

var subwayLines = []subwayLine{
	{name: "Line 1", color: "#0052A4"},
	{name: "Line 2", color: "#00A84D"},
	{name: "Line 3", color: "#EF7C1C"},
	{name: "Line 4", color: "#00A5DE"},
	{name: "Line 5", color: "#996CAC"},
	{name: "Line 6", color: "#CD7C2F"},
	{name: "Line 7", color: "#747F00"},
	{name: "Line 8", color: "#E6186C"},
	{name: "Line 9", color: "#BDB092"},
}

const lastTrainHour = 23

// MockSource fabricates a plausible three-leg commute. It stands in for a
// transit API and is deterministic for a given seed.
type MockSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.RouteSource = (*MockSource)(nil)

func NewMockSource(seed uint64) *MockSource {
	return &MockSource{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *MockSource) Plan(ctx context.Context, from, to string) (*domain.RouteInfo, error) {
	ctx, span := tracing.StartRoutePlanSpan(ctx, from, to)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		err = fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidRoute)
		return nil, err
	}

	s.mu.Lock()
	rideMinutes := 20 + s.rng.IntN(40)
	distanceKm := 5 + s.rng.IntN(20)
	line := subwayLines[s.rng.IntN(len(subwayLines))]
	firstWalk := 3 + s.rng.IntN(5)
	lastWalk := 5 + s.rng.IntN(5)
	lastTrainMinute := s.rng.IntN(60)
	s.mu.Unlock()

	originStation := stationName(from)
	destStation := stationName(destinationStop(to))

	steps := []domain.RouteStep{
		{
			Kind:            domain.StepWalk,
			From:            from,
			To:              originStation,
			DurationMinutes: firstWalk,
		},
		{
			Kind:            domain.StepSubway,
			Line:            line.name,
			LineColor:       line.color,
			From:            originStation,
			To:              destStation,
			DurationMinutes: rideMinutes,
		},
		{
			Kind:            domain.StepWalk,
			From:            destStation,
			To:              to,
			DurationMinutes: lastWalk,
		},
	}

	total := 0
	for _, step := range steps {
		total += step.DurationMinutes
	}

	info := &domain.RouteInfo{
		Steps:        steps,
		TotalMinutes: total,
		LastTrain:    domain.Deadline{Hour: lastTrainHour, Minute: lastTrainMinute},
		DistanceKm:   float64(distanceKm),
		TaxiFare:     EstimateTaxiFare(float64(distanceKm)),
	}

	slog.DebugContext(ctx, "route planned",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("line", line.name),
		slog.Int("total_minutes", total),
		slog.String("last_train", info.LastTrain.String()),
	)

	return info, nil
}

// destinationStop is the last whitespace-separated word of the destination.
func destinationStop(to string) string {
	fields := strings.Fields(to)
	if len(fields) == 0 {
		return to
	}
	return fields[len(fields)-1]
}

func stationName(place string) string {
	return place + " Station"
}
