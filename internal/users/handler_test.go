package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/view"
	_ "github.com/odyssey-erp/useradmin/testing"
)

type handlerFixture struct {
	router  chi.Router
	backend *countingBackend
	session *shared.Session
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	engine, err := view.NewEngine(time.UTC)
	require.NoError(t, err)

	f := &handlerFixture{
		backend: &countingBackend{Backend: NewMemoryBackend(sampleUsers()...)},
		session: &shared.Session{ID: "handler-test"},
	}
	service := NewService(f.backend, ServiceConfig{})
	handler := NewHandler(nil, service, engine, shared.NewCSRFManager("secret"), HandlerConfig{DefaultPageSize: 5})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), f.session)))
		})
	})
	r.Route("/users", handler.MountRoutes)
	f.router = r
	return f
}

func (f *handlerFixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *handlerFixture) flash() string {
	if msg := f.session.PopFlash(); msg != nil {
		return msg.Kind + ": " + msg.Message
	}
	return ""
}

func validFormValues() url.Values {
	slot := time.Now().Add(72 * time.Hour).UTC().Format(SlotInputLayout)
	return url.Values{
		"name":            {"Grace Hopper"},
		"username":        {"grace_h"},
		"email":           {"grace@example.com"},
		"phone":           {"+1 555 0100"},
		"website":         {"https://grace.example.com"},
		"role":            {"Editor"},
		"isActive":        {"true"},
		"skills":          {"COBOL", ""},
		"availableSlots":  {slot, ""},
		"address.street":  {"1 Navy Yard"},
		"address.city":    {"Arlington"},
		"address.zipcode": {"22202"},
		"company.name":    {"US Navy"},
	}
}

func TestHandlerListPaginatesAndFilters(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "John Doe")
	assert.Contains(t, body, "Carol White")
	assert.NotContains(t, body, "Dan Green")
	assert.Contains(t, body, "Showing 1 to 5 of 7 entries")

	rr = f.do(http.MethodGet, "/users?page=2&pageSize=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Dan Green")

	rr = f.do(http.MethodGet, "/users?search=corp.io&isActive=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = rr.Body.String()
	assert.Contains(t, body, "Bob Johnson")
	assert.NotContains(t, body, "John Doe")

	rr = f.do(http.MethodGet, "/users?search=nobody", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No users found.")
}

func TestHandlerListRedirectsPastLastPage(t *testing.T) {
	f := newHandlerFixture(t)
	rr := f.do(http.MethodGet, "/users?page=7&pageSize=5&role=Admin", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "1", loc.Query().Get("page"))
	assert.Equal(t, "Admin", loc.Query().Get("role"))
}

func TestHandlerListBackendError(t *testing.T) {
	f := newHandlerFixture(t)
	f.backend.fail.Store(true)
	rr := f.do(http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Retry")
}

func TestHandlerCreate(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/users/new", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Create User")

	rr = f.do(http.MethodPost, "/users", validFormValues())
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/users", rr.Header().Get("Location"))
	assert.Equal(t, "success: User created successfully!", f.flash())

	list, err := f.backend.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 8)
	created := list[7]
	assert.Equal(t, "Grace Hopper", created.Name)
	assert.Equal(t, []string{"COBOL"}, created.Skills)
	assert.True(t, created.IsActive)
}

func TestHandlerCreateShowsFieldErrors(t *testing.T) {
	f := newHandlerFixture(t)
	form := validFormValues()
	form.Set("email", "broken")
	form.Set("address.zipcode", "12")

	rr := f.do(http.MethodPost, "/users", form)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Invalid email format")
	assert.Contains(t, body, "Zipcode must be 5-10 digits")
	assert.Contains(t, body, `value="Grace Hopper"`, "input is kept")
	assert.Empty(t, f.flash())
}

func TestHandlerShowAndEdit(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/users/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "John Doe")

	rr = f.do(http.MethodGet, "/users/1/edit", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="john@example.com"`)

	rr = f.do(http.MethodGet, "/users/404", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "User not found")
}

func TestHandlerUpdate(t *testing.T) {
	f := newHandlerFixture(t)
	form := validFormValues()
	form.Set("name", "Johnny Doe")

	rr := f.do(http.MethodPost, "/users/1", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/users/1", rr.Header().Get("Location"))
	assert.Equal(t, "success: User updated successfully!", f.flash())

	got, err := f.backend.GetUser(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", got.Name)

	rr = f.do(http.MethodPost, "/users/404", form)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerToggle(t *testing.T) {
	f := newHandlerFixture(t)

	back := "/users?page=2&pageSize=5"
	rr := f.do(http.MethodPost, "/users/1/toggle", url.Values{"return": {back}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, back, rr.Header().Get("Location"))
	assert.Equal(t, "success: John Doe deactivated successfully!", f.flash())

	rr = f.do(http.MethodPost, "/users/1/toggle", url.Values{"return": {"https://evil.example"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/users", rr.Header().Get("Location"))
	assert.Equal(t, "success: John Doe activated successfully!", f.flash())

	rr = f.do(http.MethodPost, "/users/404/toggle", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "error: Failed to update user status", f.flash())
}

func TestHandlerDelete(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/users/2/delete?return=/users?page=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Jane Smith")

	rr = f.do(http.MethodPost, "/users/2/delete", url.Values{"return": {"/users"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "success: User deleted successfully!", f.flash())

	_, err := f.backend.GetUser(context.Background(), "2")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	rr = f.do(http.MethodPost, "/users/2/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "error: Failed to delete user", f.flash())
}

func TestSafeReturn(t *testing.T) {
	assert.Equal(t, "/users", safeReturn(""))
	assert.Equal(t, "/users?page=3", safeReturn("/users?page=3"))
	assert.Equal(t, "/users", safeReturn("//evil.example/users"))
	assert.Equal(t, "/users", safeReturn("/users/../admin"))
}
