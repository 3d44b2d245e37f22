package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/useradmin/cmd/useradmin/cli"
	"github.com/odyssey-erp/useradmin/internal/app"
	"github.com/odyssey-erp/useradmin/internal/auth"
	"github.com/odyssey-erp/useradmin/internal/observability"
	"github.com/odyssey-erp/useradmin/internal/platform/cache"
	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/users"
	"github.com/odyssey-erp/useradmin/internal/view"
	"github.com/odyssey-erp/useradmin/jobs"
	"github.com/odyssey-erp/useradmin/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		os.Exit(serve())
	case "hash-password":
		fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
		cost := fs.Int("cost", 0, "bcrypt cost (default 10)")
		_ = fs.Parse(args)
		os.Exit(cli.HashPasswordCommand(cli.HashPasswordOptions{Password: fs.Arg(0), Cost: *cost}))
	case "jobs":
		os.Exit(runJobs(args))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q; expected serve, jobs or hash-password\n", command)
		os.Exit(2)
	}
}

func runJobs(args []string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	opts := cli.JobsOptions{}
	if len(args) > 0 {
		opts.Action = args[0]
	}
	if len(args) > 1 {
		opts.Job = args[1]
	}
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = jobsCLI.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return jobsCLI.JobsCommand(ctx, opts)
}

func serve() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	logger := app.NewLogger(cfg)

	backend, err := app.OpenUsersBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("open users backend", slog.Any("error", err))
		return 1
	}
	defer backend.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, "useradmin_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	loc := cfg.Location()
	templates, err := view.NewEngine(loc)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		return 1
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	snapshotCache := users.NewCache(redisClient, cfg.UsersCacheTTL, users.NewCacheMetrics(metrics.Registerer()))
	usersService := users.NewService(backend.Backend, users.ServiceConfig{
		Logger:      logger,
		Cache:       snapshotCache,
		Warmup:      jobClient,
		WarmupDelay: cfg.UsersWarmupDelay,
	})
	defer usersService.Close()

	var authHandler *auth.Handler
	if cfg.AuthEnabled() {
		authRepo := auth.NewStaticRepository(auth.Operator{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash})
		authHandler = auth.NewHandler(logger, auth.NewService(authRepo), templates, sessionManager, csrfManager)
	} else {
		logger.Warn("ADMIN_PASSWORD_HASH not set; admin pages are open")
	}

	var reportHandler *report.Handler
	if cfg.ExportEnabled() {
		reportHandler = report.NewHandler(report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout), usersService, templates, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		UsersHandler: users.NewHandler(logger, usersService, templates, csrfManager, users.HandlerConfig{
			Location:        loc,
			DefaultPageSize: cfg.UsersDefaultPageSize,
			AuthEnabled:     cfg.AuthEnabled(),
			ExportEnabled:   cfg.ExportEnabled(),
		}),
		UsersAPI:      users.NewAPIHandler(logger, usersService, cfg.APIToken, cfg.UsersDefaultPageSize),
		JobHandler:    jobs.NewHandler(inspector, logger),
		ReportHandler: reportHandler,
		Metrics:       metrics,
		HealthCheck: func(r *http.Request) error {
			return errors.Join(backend.Ping(r.Context()), redisClient.Ping(r.Context()).Err())
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.UsersBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}
