package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/useradmin/internal/platform/db"
	"github.com/odyssey-erp/useradmin/internal/users"
	"github.com/odyssey-erp/useradmin/internal/users/restclient"
)

// UsersBackend is the configured users backend plus the resources it holds.
type UsersBackend struct {
	Backend users.Backend
	Pool    *pgxpool.Pool
}

// Close releases the database pool when one was opened.
func (b *UsersBackend) Close() {
	if b != nil && b.Pool != nil {
		b.Pool.Close()
	}
}

// Ping checks the database when the postgres backend is in use.
func (b *UsersBackend) Ping(ctx context.Context) error {
	if b == nil || b.Pool == nil {
		return nil
	}
	return b.Pool.Ping(ctx)
}

// OpenUsersBackend builds the backend selected by USERS_BACKEND. The postgres
// schema is migrated when PG_AUTO_MIGRATE is set.
func OpenUsersBackend(ctx context.Context, cfg *Config, logger *slog.Logger) (*UsersBackend, error) {
	switch cfg.UsersBackend {
	case BackendREST:
		logger.Info("using rest users backend", slog.String("url", cfg.UsersAPIURL))
		return &UsersBackend{Backend: restclient.NewClient(cfg.UsersAPIURL, cfg.APIToken, cfg.UsersAPITimeout)}, nil
	case BackendMemory:
		logger.Warn("using in-memory users backend; records are lost on restart")
		return &UsersBackend{Backend: users.NewMemoryBackend(users.DemoUsers(time.Now())...)}, nil
	case BackendPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, 0)
		if err != nil {
			return nil, err
		}
		if cfg.PGAutoMigrate {
			if err := db.Migrate(cfg.PGDSN, users.Migrations, "migrations"); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate users schema: %w", err)
			}
		}
		return &UsersBackend{Backend: users.NewRepository(pool), Pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown USERS_BACKEND %q", cfg.UsersBackend)
	}
}
