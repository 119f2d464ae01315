package routeplanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/observability/logging"
	"github.com/KasumiMercury/primind-last-train/internal/observability/tracing"
	"github.com/KasumiMercury/primind-last-train/internal/service/route"
)

// Client plans routes against a remote transit planner.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ domain.RouteSource = (*Client)(nil)

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Plan(ctx context.Context, from, to string) (*domain.RouteInfo, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidRoute)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	u.Path = "/api/v1/routes"
	q := u.Query()
	q.Set("from", from)
	q.Set("to", to)
	u.RawQuery = q.Encode()

	ctx, span := tracing.StartExternalAPISpan(ctx, "plan_route", u.String())
	defer func() { tracing.EndSpan(span, err) }()

	slog.DebugContext(ctx, "planning route with transit planner",
		slog.String("url", u.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	requestID := logging.ValidateAndExtractRequestID(logging.RequestIDFromContext(ctx))
	req.Header.Set("x-request-id", requestID)
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send request to transit planner",
			slog.String("url", u.String()),
			slog.String("error", err.Error()),
		)
		err = fmt.Errorf("failed to send request: %w", err)
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		err = fmt.Errorf("%w: planner returned %d", domain.ErrInvalidRoute, resp.StatusCode)
		return nil, err
	case resp.StatusCode != http.StatusOK:
		slog.ErrorContext(ctx, "unexpected status code from transit planner",
			slog.String("url", u.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		err = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		return nil, err
	}

	var planned plannedRoute
	if err = json.Unmarshal(body, &planned); err != nil {
		err = fmt.Errorf("failed to decode response: %w", err)
		return nil, err
	}

	info, err := planned.toDomain()
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "route planned",
		slog.Int("steps", len(info.Steps)),
		slog.Int("total_minutes", info.TotalMinutes),
		slog.String("last_train", info.LastTrain.String()),
	)

	return info, nil
}

type plannedStep struct {
	Type      string `json:"type"`
	Line      string `json:"line"`
	LineColor string `json:"lineColor"`
	From      string `json:"from"`
	To        string `json:"to"`
	Duration  int    `json:"duration"`
}

type plannedRoute struct {
	Route         []plannedStep `json:"route"`
	LastTrainTime string        `json:"lastTrainTime"`
	Distance      float64       `json:"distance"`
	TaxiFare      int           `json:"taxiFare"`
}

func (p plannedRoute) toDomain() (*domain.RouteInfo, error) {
	lastTrain, err := domain.ParseDeadline(p.LastTrainTime)
	if err != nil {
		return nil, fmt.Errorf("planner returned invalid last train time: %w", err)
	}

	steps := make([]domain.RouteStep, 0, len(p.Route))
	total := 0
	for _, s := range p.Route {
		if s.Duration < 0 {
			return nil, fmt.Errorf("planner returned negative step duration %d", s.Duration)
		}
		steps = append(steps, domain.RouteStep{
			Kind:            domain.StepKind(s.Type),
			Line:            s.Line,
			LineColor:       s.LineColor,
			From:            s.From,
			To:              s.To,
			DurationMinutes: s.Duration,
		})
		total += s.Duration
	}

	fare := p.TaxiFare
	if fare == 0 {
		fare = route.EstimateTaxiFare(p.Distance)
	}

	return &domain.RouteInfo{
		Steps:        steps,
		TotalMinutes: total,
		LastTrain:    lastTrain,
		DistanceKm:   p.Distance,
		TaxiFare:     fare,
	}, nil
}
