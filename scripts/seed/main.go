// Command seed loads the demo users into the configured users backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/odyssey-erp/useradmin/internal/app"
	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/users"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.UsersBackend == app.BackendMemory {
		logger.Error("seeding the memory backend has no effect; set USERS_BACKEND=postgres or rest")
		os.Exit(1)
	}

	backend, err := app.OpenUsersBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("open users backend", slog.Any("error", err))
		os.Exit(1)
	}
	defer backend.Close()

	created, skipped, err := seedUsers(ctx, backend.Backend, users.DemoUsers(time.Now()))
	if err != nil {
		logger.Error("seed users", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete",
		slog.String("backend", cfg.UsersBackend),
		slog.Int("created", created),
		slog.Int("skipped", skipped))
}

// seedUsers creates every record, skipping ids that already exist.
func seedUsers(ctx context.Context, backend users.Backend, records []users.User) (created, skipped int, err error) {
	for _, u := range records {
		if _, err := backend.CreateUser(ctx, u); err != nil {
			if errors.Is(err, shared.ErrDuplicate) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("create %s: %w", u.ID, err)
		}
		created++
	}
	return created, skipped, nil
}
