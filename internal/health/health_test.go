package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-last-train/internal/testutil"
)

type fixedCounter int

func (f fixedCounter) ActiveTimers() int { return int(f) }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCheckerWithoutDependencies(t *testing.T) {
	checker := NewChecker(nil, fixedCounter(3), "v1.2.3")

	status := checker.Report(context.Background())
	if status.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", status.Status)
	}
	if status.ActiveTimers != 3 {
		t.Errorf("expected 3 active timers, got %d", status.ActiveTimers)
	}

	r := gin.New()
	r.GET("/health/ready", checker.ReadyHandler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %s", body.Version)
	}
}

func TestCheckerGRPC(t *testing.T) {
	checker := NewChecker(nil, nil, "dev")

	tests := []struct {
		name     string
		service  string
		want     grpchealth.Status
		wantCode connect.Code
	}{
		{name: "overall", service: "", want: grpchealth.StatusServing},
		{name: "departure service", service: ServiceName, want: grpchealth.StatusServing},
		{name: "unknown service", service: "other.v1.Service", wantCode: connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := checker.Check(context.Background(), &grpchealth.CheckRequest{Service: tt.service})
			if tt.wantCode != 0 {
				var connectErr *connect.Error
				if !errors.As(err, &connectErr) || connectErr.Code() != tt.wantCode {
					t.Fatalf("expected code %v, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("expected %v, got %v", tt.want, resp.Status)
			}
		})
	}
}

func TestCheckerRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)

	checker := NewChecker(client, nil, "dev")

	status := checker.Report(ctx)
	if status.Status != StatusHealthy || status.Checks["redis"].Status != StatusHealthy {
		t.Errorf("expected healthy redis, got %+v", status)
	}

	cleanup()

	status = checker.Report(ctx)
	if status.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy after redis shutdown, got %s", status.Status)
	}

	resp, err := checker.Check(ctx, &grpchealth.CheckRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != grpchealth.StatusNotServing {
		t.Errorf("expected not serving, got %v", resp.Status)
	}
}
