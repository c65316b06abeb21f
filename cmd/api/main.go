package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ops-desk/internal/api/http"
	"github.com/spec-kit/ops-desk/internal/api/http/handlers"
	"github.com/spec-kit/ops-desk/internal/auth"
	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/events"
	"github.com/spec-kit/ops-desk/internal/observability"
	"github.com/spec-kit/ops-desk/internal/persistence"
	"github.com/spec-kit/ops-desk/internal/repository"
	"github.com/spec-kit/ops-desk/internal/repository/sqlitestore"
	"github.com/spec-kit/ops-desk/internal/service"
	"github.com/spec-kit/ops-desk/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := cfg.App.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	dependencies := map[string]handlers.Pinger{}
	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool, cfg.Postgres.TxTimeout())
		dependencies["postgres"] = pg
	} else {
		local, err := sqlitestore.Open(cfg.SQLite, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer local.Close()
		if cfg.SQLite.Path == persistence.MemoryPath {
			logger.Warn("no POSTGRES_DSN; using in-memory sqlite, data is lost on restart")
		}
		store = local
		dependencies["sqlite"] = local
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	revocations := auth.NewMemoryRevocationStore()
	if redis.Enabled() {
		revocations = auth.NewRedisRevocationStore(redis.Client)
		dependencies["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger, cfg.Notification)
	notifier := worker.NewNotificationWorker(notifications, logger, 0)
	notifier.Register(dispatcher)
	notifier.Start(ctx)

	identity, err := service.NewIdentityService(*cfg, service.IdentityDependencies{
		Store:       store,
		Revocations: revocations,
	})
	if err != nil {
		logger.Fatal("failed to init identity service", zap.Error(err))
	}
	attendance := service.NewAttendanceService(service.AttendanceDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Location:   loc,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Dispatcher: dispatcher,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Auth:           handlers.NewAuthHandler(identity),
		Users:          handlers.NewUsersHandler(identity),
		Attendance:     handlers.NewAttendanceHandler(attendance),
		Tickets:        handlers.NewTicketsHandler(tickets),
		AuthMiddleware: auth.NewAuthMiddleware(identity.TokenManager(), store.Users(), identity.Revocations()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	notifier.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
