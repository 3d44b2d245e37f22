package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/users"
)

// Renderer converts HTML into PDF bytes.
type Renderer interface {
	Ping(ctx context.Context) error
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// UserQuerier runs list queries over the user collection.
type UserQuerier interface {
	Query(ctx context.Context, d users.QueryDescriptor) (users.QueryResult, error)
}

// TemplateExecutor renders named templates into a writer.
type TemplateExecutor interface {
	Execute(w io.Writer, name string, data any) error
}

// Handler serves user roster exports.
type Handler struct {
	renderer  Renderer
	users     UserQuerier
	templates TemplateExecutor
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a report handler.
func NewHandler(renderer Renderer, querier UserQuerier, templates TemplateExecutor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{renderer: renderer, users: querier, templates: templates, logger: logger, now: time.Now}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/users.pdf", h.usersPDF)
}

type rosterView struct {
	Users       []users.User
	Total       int
	Filters     string
	GeneratedAt time.Time
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// usersPDF exports every user matching the list filters, ignoring paging.
func (h *Handler) usersPDF(w http.ResponseWriter, r *http.Request) {
	state := users.ParseListState(r.URL.Query(), shared.DefaultPageSize)
	desc := state.Descriptor()
	desc.Page = 1
	desc.PageSize = math.MaxInt32

	result, err := h.users.Query(r.Context(), desc)
	if err != nil {
		h.logger.Error("export users query", slog.Any("error", err))
		http.Error(w, shared.UserSafeMessage(err), http.StatusBadGateway)
		return
	}

	var html bytes.Buffer
	if err := h.templates.Execute(&html, "reports/users.html", rosterView{
		Users:       result.Users,
		Total:       result.TotalCount,
		Filters:     describeFilters(state),
		GeneratedAt: h.now(),
	}); err != nil {
		h.logger.Error("render roster html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pdf, err := h.renderer.RenderHTML(r.Context(), html.Bytes())
	if err != nil {
		h.logger.Error("render roster pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=users-"+h.now().UTC().Format("20060102")+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func describeFilters(s users.ListState) string {
	var parts []string
	if s.Search != "" {
		parts = append(parts, `search "`+s.Search+`"`)
	}
	if s.Role != "" {
		parts = append(parts, "role "+string(s.Role))
	}
	switch s.Active {
	case "true":
		parts = append(parts, "active only")
	case "false":
		parts = append(parts, "inactive only")
	}
	return strings.Join(parts, ", ")
}
