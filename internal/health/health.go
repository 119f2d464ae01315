package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ServiceName is the gRPC health service name reported alongside the
// overall ("") status.
const ServiceName = "lasttrain.v1.DepartureService"

// Status represents the health status of a service or dependency.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the health check result for a single dependency.
type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthStatus represents the overall health status of the service.
type HealthStatus struct {
	Status       Status                 `json:"status"`
	Version      string                 `json:"version,omitempty"`
	ActiveTimers int                    `json:"active_timers"`
	Checks       map[string]CheckResult `json:"checks,omitempty"`
}

// TimerCounter reports how many departure timers are running.
type TimerCounter interface {
	ActiveTimers() int
}

// Checker performs health checks on service dependencies.
type Checker struct {
	redisClient *redis.Client
	timers      TimerCounter
	version     string
}

var _ grpchealth.Checker = (*Checker)(nil)

// NewChecker creates a new health checker with the given dependencies.
func NewChecker(redisClient *redis.Client, timers TimerCounter, version string) *Checker {
	return &Checker{
		redisClient: redisClient,
		timers:      timers,
		version:     version,
	}
}

// Report checks every dependency and returns the overall status.
func (c *Checker) Report(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}

	if c.timers != nil {
		status.ActiveTimers = c.timers.ActiveTimers()
	}

	if c.redisClient != nil {
		start := time.Now()
		if err := c.redisClient.Ping(checkCtx).Err(); err != nil {
			status.Status = StatusUnhealthy
			status.Checks["redis"] = CheckResult{
				Status: StatusUnhealthy,
				Error:  err.Error(),
			}
		} else {
			status.Checks["redis"] = CheckResult{
				Status:    StatusHealthy,
				LatencyMs: time.Since(start).Milliseconds(),
			}
		}
	}

	return status
}

// Check implements the gRPC health protocol.
func (c *Checker) Check(ctx context.Context, req *grpchealth.CheckRequest) (*grpchealth.CheckResponse, error) {
	if req.Service != "" && req.Service != ServiceName {
		return nil, connect.NewError(connect.CodeNotFound,
			fmt.Errorf("unknown service %q", req.Service))
	}

	if c.Report(ctx).Status != StatusHealthy {
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}

	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}

// GRPCHandler returns the mount path and handler for grpc.health.v1.Health.
func (c *Checker) GRPCHandler() (string, http.Handler) {
	return grpchealth.NewHandler(c)
}

// LiveHandler returns a Gin handler for liveness probes.
func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadyHandler returns a Gin handler for readiness probes.
func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Report(ctx.Request.Context())

		httpStatus := http.StatusOK
		if status.Status != StatusHealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		ctx.JSON(httpStatus, status)
	}
}
