// Command seed creates the bootstrap admin account. It is idempotent: an
// existing account with the same email is left untouched.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ops-desk/internal/config"
	"github.com/spec-kit/ops-desk/internal/domain"
	"github.com/spec-kit/ops-desk/internal/observability"
	"github.com/spec-kit/ops-desk/internal/persistence"
	"github.com/spec-kit/ops-desk/internal/repository"
	"github.com/spec-kit/ops-desk/internal/repository/sqlitestore"
	"github.com/spec-kit/ops-desk/internal/service"
)

func main() {
	email := flag.String("email", "admin@example.com", "admin email")
	password := flag.String("password", "admin123", "admin password")
	name := flag.String("name", "Administrator", "admin full name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pool, cfg.Postgres.TxTimeout())
	} else {
		if cfg.SQLite.Path == persistence.MemoryPath {
			logger.Fatal("POSTGRES_DSN or a file SQLITE_PATH is required to seed")
		}
		local, err := sqlitestore.Open(cfg.SQLite, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer local.Close()
		store = local
	}

	identity, err := service.NewIdentityService(*cfg, service.IdentityDependencies{Store: store})
	if err != nil {
		logger.Fatal("failed to init identity service", zap.Error(err))
	}

	existing, found, err := identity.FindByEmail(ctx, *email)
	if err != nil {
		logger.Fatal("lookup failed", zap.Error(err))
	}
	if found {
		logger.Info("admin already present", zap.Int64("user_id", existing.ID), zap.String("email", existing.Email))
		return
	}

	admin, err := identity.Create(ctx, domain.Registration{
		FullName: *name,
		Email:    *email,
		Role:     domain.RoleAdmin,
		Password: *password,
	})
	if err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}
	logger.Info("admin created", zap.Int64("user_id", admin.ID), zap.String("email", admin.Email))
}
