package main

import (
	"context"
	"errors"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-activity/internal/api/http"
	"github.com/spec-kit/ticket-activity/internal/api/http/handlers"
	"github.com/spec-kit/ticket-activity/internal/auth"
	"github.com/spec-kit/ticket-activity/internal/config"
	"github.com/spec-kit/ticket-activity/internal/forms"
	"github.com/spec-kit/ticket-activity/internal/observability"
	"github.com/spec-kit/ticket-activity/internal/persistence"
	"github.com/spec-kit/ticket-activity/internal/realtime"
	"github.com/spec-kit/ticket-activity/internal/repository"
	"github.com/spec-kit/ticket-activity/internal/service"
	"github.com/spec-kit/ticket-activity/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		activityRepo repository.ActivityLogRepository
		assigneeRepo repository.AssigneeRepository
		teamDir      repository.TeamDirectory
		checks       []handlers.DependencyCheck
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		activityRepo = repository.NewActivityLogRepository(pool)
		assigneeRepo = repository.NewAssigneeRepository(pool)
		teamDir = repository.NewTeamDirectory(pool)
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Ping: pg.Ping})
	} else {
		activityRepo = repository.NewMemoryActivityLog()
		assigneeRepo = repository.NewMemoryAssignees()
		teamDir = repository.NewMemoryTeams()
	}

	registry := realtime.NewRegistry()
	registry.OnSizeChange(metrics.SetActiveConnections)
	hub := realtime.NewHub(registry, logger, metrics)

	var broadcaster realtime.Broadcaster = hub
	if cfg.Redis.RelayEnabled {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Ping: redis.Ping})

		relay := realtime.NewRelay(hub, redis.Client, cfg.Redis.RelayChannel, logger, metrics)
		broadcaster = relay
		go runRelay(ctx, relay, logger)
	}

	lanes := worker.NewPool(cfg.Activity.Lanes, cfg.Activity.LaneQueueSize, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	activityService := service.NewActivityLogService(service.ActivityDependencies{
		Store:         activityRepo,
		Forms:         forms.NewRegistry(forms.DefaultLookups()),
		Broadcaster:   broadcaster,
		Lanes:         lanes,
		AppendRetries: cfg.Activity.AppendRetries,
		Logger:        logger,
		Metrics:       metrics,
	})
	assignmentService := service.NewAssignmentService(assigneeRepo, logger)
	notificationService := service.NewNotificationService(teamDir, broadcaster, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Activity:       handlers.NewActivityHandler(activityService),
		Assignees:      handlers.NewAssigneeHandler(assignmentService),
		Notifications:  handlers.NewNotificationHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics.Handler(),
	})

	socketServer := realtime.NewSocketServer(registry, tokens, cfg.Socket, logger)
	mux := nethttp.NewServeMux()
	mux.Handle(cfg.Socket.Path, socketServer)
	socketHTTP := &nethttp.Server{
		Addr:              cfg.Socket.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("socket server listening", zap.String("addr", socketHTTP.Addr), zap.String("path", cfg.Socket.Path))
		if err := socketHTTP.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Fatal("socket listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop intake first, then drain queued saves so their events still go out.
	_ = app.ShutdownWithContext(shutdownCtx)
	if err := lanes.Stop(shutdownCtx); err != nil {
		logger.Warn("activity lanes did not drain", zap.Error(err))
	}
	socketServer.Close()
	_ = socketHTTP.Shutdown(shutdownCtx)
	cancel()
}

func runRelay(ctx context.Context, relay *realtime.Relay, logger *zap.Logger) {
	backoff := time.Second
	for {
		err := relay.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("relay stopped; resubscribing", zap.Error(err), zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
