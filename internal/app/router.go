package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/useradmin/internal/auth"
	"github.com/odyssey-erp/useradmin/internal/observability"
	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/users"
	"github.com/odyssey-erp/useradmin/jobs"
	"github.com/odyssey-erp/useradmin/report"
	"github.com/odyssey-erp/useradmin/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	UsersAPI       *users.APIHandler
	JobHandler     *jobs.Handler
	ReportHandler  *report.Handler
	Metrics        *observability.Metrics
	HealthCheck    func(r *http.Request) error
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.HealthCheck != nil {
			if err := params.HealthCheck(r); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
	})

	authEnabled := params.AuthHandler != nil && params.Config != nil && params.Config.AuthEnabled()
	if authEnabled {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", func(r chi.Router) {
			if authEnabled {
				r.Use(auth.RequireOperator)
			}
			params.UsersHandler.MountRoutes(r)
		})
	}
	if params.ReportHandler != nil {
		r.Route("/reports", func(r chi.Router) {
			if authEnabled {
				r.Use(auth.RequireOperator)
			}
			params.ReportHandler.MountRoutes(r)
		})
	}
	// Without a token the API would bypass the operator login.
	apiGuarded := !authEnabled || params.Config.APIToken != ""
	if params.UsersAPI != nil && apiGuarded {
		r.Route("/api/users", params.UsersAPI.MountRoutes)
	} else if params.UsersAPI != nil {
		params.Logger.Warn("users api disabled: API_TOKEN is required with operator login")
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
