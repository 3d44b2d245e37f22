package users

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/useradmin/internal/platform/httpx"
	"github.com/odyssey-erp/useradmin/internal/shared"
)

// APIHandler exposes the user collection as JSON. Its /users routes follow
// the shape the REST backend client expects, so one instance can serve as
// the backend of another.
type APIHandler struct {
	logger          *slog.Logger
	service         *Service
	token           string
	defaultPageSize int
}

// NewAPIHandler builds APIHandler. An empty token disables authentication.
func NewAPIHandler(logger *slog.Logger, service *Service, token string, defaultPageSize int) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultPageSize < 1 {
		defaultPageSize = shared.DefaultPageSize
	}
	return &APIHandler{logger: logger, service: service, token: token, defaultPageSize: defaultPageSize}
}

// MountRoutes registers API routes.
func (h *APIHandler) MountRoutes(r chi.Router) {
	r.Use(h.requireToken)
	r.Get("/", h.list)
	r.Get("/query", h.query)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.patch)
	r.Put("/{id}", h.replace)
	r.Delete("/{id}", h.delete)
}

type queryResponse struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

func (h *APIHandler) list(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

func (h *APIHandler) query(w http.ResponseWriter, r *http.Request) {
	state := ParseListState(r.URL.Query(), h.defaultPageSize)
	result, err := h.service.Query(r.Context(), state.Descriptor())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, queryResponse{
		Users:      result.Users,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: shared.TotalPages(result.TotalCount, result.PageSize),
	})
}

func (h *APIHandler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *APIHandler) create(w http.ResponseWriter, r *http.Request) {
	var body User
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), FormFromUser(body, time.UTC))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *APIHandler) patch(w http.ResponseWriter, r *http.Request) {
	var body Patch
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	updated, err := h.service.Patch(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *APIHandler) replace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body User
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	body.ID = id
	updated, err := h.service.Update(r.Context(), id, FormFromUser(body, time.UTC))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *APIHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("users api request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *APIHandler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		supplied, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(supplied), []byte(h.token)) != 1 {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
