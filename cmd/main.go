package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-last-train/internal/config"
	"github.com/KasumiMercury/primind-last-train/internal/domain"
	"github.com/KasumiMercury/primind-last-train/internal/handler"
	"github.com/KasumiMercury/primind-last-train/internal/health"
	"github.com/KasumiMercury/primind-last-train/internal/infra/departurerecorder"
	"github.com/KasumiMercury/primind-last-train/internal/infra/notifier"
	"github.com/KasumiMercury/primind-last-train/internal/infra/repository"
	"github.com/KasumiMercury/primind-last-train/internal/infra/routeplanner"
	"github.com/KasumiMercury/primind-last-train/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-last-train/internal/observability/logging"
	"github.com/KasumiMercury/primind-last-train/internal/observability/metrics"
	"github.com/KasumiMercury/primind-last-train/internal/observability/middleware"
	"github.com/KasumiMercury/primind-last-train/internal/service/departure"
	"github.com/KasumiMercury/primind-last-train/internal/service/route"
	"github.com/KasumiMercury/primind-last-train/internal/service/timer"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs, err := initObservability(ctx)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	obs.SetLevel(cfg.LogLevel)

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	if err := cfg.TaskQueue.Validate(); err != nil {
		slog.Error("task queue configuration error", slog.String("error", err.Error()))
		return 1
	}

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	departureMetrics, err := metrics.NewDepartureMetrics()
	if err != nil {
		slog.Error("failed to initialize departure metrics", slog.String("error", err.Error()))
		return 1
	}

	// InfluxDB for local, BigQuery for gcloud
	recorderConfig := departurerecorder.LoadConfig()
	backendRecorder, err := departurerecorder.NewRecorder(ctx, recorderConfig)
	if err != nil {
		slog.Error("failed to initialize departure event recorder", slog.String("error", err.Error()))
		return 1
	}
	// Ticks enqueue events; the backend is written from a separate goroutine.
	recorder := departurerecorder.NewAsyncRecorder(backendRecorder, recorderConfig.BufferSize)
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Warn("failed to close departure event recorder", slog.String("error", err.Error()))
		}
	}()

	taskQueue, cleanup, err := initTaskQueue(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize task queue", slog.String("error", err.Error()))
		return 1
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				slog.Error("task queue cleanup error", slog.String("error", err.Error()))
			}
		}()
	}

	redisOpts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	timerRepo := repository.NewTimerRepository(redisClient)
	sink := newNotificationSink(cfg, taskQueue, timerRepo)
	routeSource := newRouteSource(cfg.Route)

	rollover, ok := departure.ParseRollover(string(cfg.Departure.Rollover))
	if !ok {
		rollover = departure.RolloverAtDeadline
	}

	timerService := timer.NewService(
		timerRepo,
		sink,
		recorder,
		routeSource,
		departureMetrics,
		timer.Settings{
			TickInterval:  cfg.Departure.TickInterval,
			DisplayWindow: cfg.Departure.DisplayWindow,
			Rollover:      rollover,
		},
	)

	if _, err := timerService.Restore(ctx); err != nil {
		slog.Error("failed to restore departure timers",
			slog.String("event", "timers.restore.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}
	defer timerService.Shutdown()

	timerHandler := handler.NewTimerHandler(timerService)
	routeHandler := handler.NewRouteHandler(timerService)

	// Setup router with observability middleware
	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready"},
		Module:      logging.Module("last-train"),
		TracerName:  "github.com/KasumiMercury/primind-last-train/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	// Health check endpoints
	healthChecker := health.NewChecker(redisClient, timerService, Version)
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	grpcHealthPath, grpcHealthHandler := healthChecker.GRPCHandler()
	r.Any(grpcHealthPath+"*method", gin.WrapH(grpcHealthHandler))

	// API routes
	v1 := r.Group("/api/v1")
	timerHandler.Register(v1)
	routeHandler.Register(v1)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Duration("tick_interval", cfg.Departure.TickInterval),
			slog.String("rollover", string(rollover)),
			slog.Bool("notifications_disabled", cfg.Notifications.Disabled),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}

// newNotificationSink picks the alert path: disabled, or queued with
// cross-restart de-duplication.
func newNotificationSink(cfg *config.Config, queue taskqueue.TaskQueue, repo domain.TimerRepository) domain.NotificationSink {
	if cfg.Notifications.Disabled || queue == nil {
		slog.Warn("departure notifications disabled")
		return notifier.NewNoopSink()
	}

	return notifier.NewDedupSink(notifier.NewQueueSink(queue), repo, cfg.Notifications.MarkerTTL)
}

func newRouteSource(cfg *config.RouteConfig) domain.RouteSource {
	if cfg.PlannerURL == "" {
		slog.Info("using mock route planner", slog.Uint64("seed", cfg.Seed))
		return route.NewMockSource(cfg.Seed)
	}

	slog.Info("using transit planner", slog.String("url", cfg.PlannerURL))

	return routeplanner.NewClient(cfg.PlannerURL)
}
