package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/view"
)

const basePath = "/users"

// Handler serves the HTML user management pages.
type Handler struct {
	logger          *slog.Logger
	service         *Service
	templates       *view.Engine
	csrf            *shared.CSRFManager
	location        *time.Location
	defaultPageSize int
	authEnabled     bool
	exportEnabled   bool
}

// HandlerConfig carries presentation settings for Handler.
type HandlerConfig struct {
	Location        *time.Location
	DefaultPageSize int
	AuthEnabled     bool
	ExportEnabled   bool
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = shared.DefaultPageSize
	}
	return &Handler{
		logger:          logger,
		service:         service,
		templates:       templates,
		csrf:            csrf,
		location:        cfg.Location,
		defaultPageSize: cfg.DefaultPageSize,
		authEnabled:     cfg.AuthEnabled,
		exportEnabled:   cfg.ExportEnabled,
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Get("/new", h.showCreateForm)
	r.Get("/create", h.showCreateForm)
	r.Post("/", h.createUser)
	r.Get("/{id}", h.showUser)
	r.Get("/{id}/edit", h.showEditForm)
	r.Post("/{id}", h.updateUser)
	r.Post("/{id}/toggle", h.toggleUser)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.deleteUser)
}

type listView struct {
	Users      []User
	State      ListState
	Pagination shared.Pagination
	Roles      []Role
	PageSizes  []int
	ReturnURL  string
	ExportURL  string
}

// PageURL links to page n keeping the current filters.
func (v listView) PageURL(n int) string {
	return v.State.PageURL(basePath, n)
}

type formView struct {
	Form    Form
	Errors  map[string]string
	Roles   []Role
	IsEdit  bool
	Action  string
	General string
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	state := ParseListState(r.URL.Query(), h.defaultPageSize)
	result, err := h.service.Query(r.Context(), state.Descriptor())
	if err != nil {
		h.renderFetchError(w, r, err)
		return
	}
	// A delete can leave the operator past the last page.
	if last := shared.TotalPages(result.TotalCount, state.PageSize); state.Page > last {
		http.Redirect(w, r, state.PageURL(basePath, last), http.StatusSeeOther)
		return
	}
	data := listView{
		Users:      result.Users,
		State:      state,
		Pagination: shared.NewPagination(state.Page, state.PageSize, result.TotalCount),
		Roles:      Roles,
		PageSizes:  shared.PageSizeOptions,
		ReturnURL:  basePath + "?" + state.Values().Encode(),
	}
	if h.exportEnabled {
		data.ExportURL = "/reports/users.pdf?" + state.Values().Encode()
	}
	h.render(w, r, "pages/users/list.html", "Users", data, http.StatusOK)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/users/detail.html", user.Name, map[string]any{"User": user}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/users/form.html", "Create User", formView{
		Form:   NewForm(),
		Errors: map[string]string{},
		Roles:  Roles,
		Action: basePath,
	}, http.StatusOK)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := ParseForm(r.PostForm, h.location)
	if _, err := h.service.Create(r.Context(), form); err != nil {
		h.renderFormError(w, r, "Create User", formView{Form: form, Action: basePath}, err, "Failed to create user")
		return
	}
	h.redirectWithFlash(w, r, basePath, "success", "User created successfully!")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/users/form.html", "Edit User", formView{
		Form:   FormFromUser(user, h.location),
		Errors: map[string]string{},
		Roles:  Roles,
		IsEdit: true,
		Action: basePath + "/" + user.ID,
	}, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := ParseForm(r.PostForm, h.location)
	form.ID = id
	if _, err := h.service.Update(r.Context(), id, form); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.renderNotFound(w, r, id)
			return
		}
		h.renderFormError(w, r, "Edit User", formView{Form: form, IsEdit: true, Action: basePath + "/" + id}, err, "Failed to update user")
		return
	}
	h.redirectWithFlash(w, r, basePath+"/"+id, "success", "User updated successfully!")
}

func (h *Handler) toggleUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := safeReturn(r.PostFormValue("return"))
	updated, err := h.service.ToggleActive(r.Context(), id)
	if err != nil {
		h.logger.Error("toggle user failed", slog.String("id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, back, "error", "Failed to update user status")
		return
	}
	verb := "deactivated"
	if updated.IsActive {
		verb = "activated"
	}
	h.redirectWithFlash(w, r, back, "success", updated.Name+" "+verb+" successfully!")
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/users/delete.html", "Delete User", map[string]any{
		"User":      user,
		"ReturnURL": safeReturn(r.URL.Query().Get("return")),
	}, http.StatusOK)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := safeReturn(r.PostFormValue("return"))
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete user failed", slog.String("id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, back, "error", "Failed to delete user")
		return
	}
	h.redirectWithFlash(w, r, back, "success", "User deleted successfully!")
}

func (h *Handler) loadUser(w http.ResponseWriter, r *http.Request) (User, bool) {
	id := chi.URLParam(r, "id")
	user, err := h.service.Get(r.Context(), id)
	if err == nil {
		return user, true
	}
	if errors.Is(err, shared.ErrNotFound) {
		h.renderNotFound(w, r, id)
		return User{}, false
	}
	h.renderFetchError(w, r, err)
	return User{}, false
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, title string, data formView, err error, fallback string) {
	data.Roles = Roles
	data.Errors = map[string]string{}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		data.Errors = verrs.Map()
		h.render(w, r, "pages/users/form.html", title, data, http.StatusBadRequest)
		return
	}
	h.logger.Error("save user failed", slog.Any("error", err))
	data.General = fallback + ": " + shared.UserSafeMessage(err)
	h.render(w, r, "pages/users/form.html", title, data, statusFor(err))
}

func (h *Handler) renderNotFound(w http.ResponseWriter, r *http.Request, id string) {
	h.render(w, r, "pages/users/not_found.html", "User Not Found", map[string]any{"ID": id}, http.StatusNotFound)
}

func (h *Handler) renderFetchError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("load users failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	h.render(w, r, "pages/users/error.html", "Error", map[string]any{
		"Message":  shared.UserSafeMessage(err),
		"RetryURL": r.URL.RequestURI(),
	}, statusFor(err))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Operator:    shared.OperatorFromContext(r.Context()),
		AuthEnabled: h.authEnabled,
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrBackendUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// safeReturn only allows local list URLs as redirect targets.
func safeReturn(target string) string {
	if target == basePath || strings.HasPrefix(target, basePath+"?") {
		return target
	}
	return basePath
}
