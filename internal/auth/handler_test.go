package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/useradmin/internal/auth"
	"github.com/odyssey-erp/useradmin/internal/shared"
	"github.com/odyssey-erp/useradmin/internal/view"
	_ "github.com/odyssey-erp/useradmin/testing"
)

const operatorEmail = "ops@example.com"

func newAuthRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine(time.UTC)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := auth.NewStaticRepository(auth.Operator{Email: operatorEmail, PasswordHash: string(hash)})
	handler := auth.NewHandler(nil, auth.NewService(repo), templates, sessionManager, csrfManager)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

// serve runs one request through the router with a loaded and committed
// session, mirroring the application middleware.
func serve(t *testing.T, handler http.Handler, sm *shared.SessionManager, req *http.Request, prepare func(*shared.Session)) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	ctx := context.Background()
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if prepare != nil {
		prepare(sess)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	w := &committingWriter{ResponseWriter: res, commit: func(w http.ResponseWriter) {
		if err := sm.Commit(ctx, w, sess); err != nil {
			t.Errorf("commit session: %v", err)
		}
	}}
	handler.ServeHTTP(w, req)
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return res, sess
}

// committingWriter commits the session right before headers are sent.
type committingWriter struct {
	http.ResponseWriter
	commit    func(http.ResponseWriter)
	committed bool
}

func (w *committingWriter) WriteHeader(statusCode int) {
	if !w.committed {
		w.committed = true
		w.commit(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *committingWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func TestLoginPage(t *testing.T) {
	handler, sm := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/login?next=/users/42", nil)
	res, _ := serve(t, handler, sm, req, nil)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	body := res.Body.String()
	if !strings.Contains(body, "<form") {
		t.Fatalf("expected login form in body")
	}
	if !strings.Contains(body, `value="/users/42"`) {
		t.Fatalf("expected next target to be carried in the form")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sm := newAuthRouter(t)

	form := url.Values{"email": {operatorEmail}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, sess := serve(t, handler, sm, req, nil)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid email or password.") {
		t.Fatalf("expected credential error in body")
	}
	if sess.Operator() != "" {
		t.Fatalf("operator must not be set after failed login")
	}
}

func TestLoginMissingFields(t *testing.T) {
	handler, sm := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=&password="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, _ := serve(t, handler, sm, req, nil)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}

func TestLoginSuccessRedirectsToNext(t *testing.T) {
	handler, sm := newAuthRouter(t)

	form := url.Values{"email": {"OPS@example.com "}, "password": {"correct horse"}, "next": {"/users?page=2"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, sess := serve(t, handler, sm, req, nil)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/users?page=2" {
		t.Fatalf("unexpected redirect target %q", loc)
	}
	if sess.Operator() != operatorEmail {
		t.Fatalf("expected operator %q, got %q", operatorEmail, sess.Operator())
	}
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	handler, sm := newAuthRouter(t)

	for _, next := range []string{"https://evil.example", "//evil.example", `/\evil.example`} {
		form := url.Values{"email": {operatorEmail}, "password": {"correct horse"}, "next": {next}}
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		res, _ := serve(t, handler, sm, req, nil)
		if loc := res.Header().Get("Location"); loc != "/users" {
			t.Fatalf("next %q: expected fallback redirect, got %q", next, loc)
		}
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, sm := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	res, _ := serve(t, handler, sm, req, func(s *shared.Session) { s.SetOperator(operatorEmail) })

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	var cleared bool
	for _, c := range res.Result().Cookies() {
		if c.Name == sm.CookieName() && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be cleared")
	}
}

func TestRequireOperator(t *testing.T) {
	protected := auth.RequireOperator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	sess := &shared.Session{ID: "anon"}
	req := httptest.NewRequest(http.MethodGet, "/users?page=3", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for anonymous request, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/auth/login?next=%2Fusers%3Fpage%3D3" {
		t.Fatalf("unexpected login redirect %q", loc)
	}

	sess.SetOperator(operatorEmail)
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through for operator, got %d", res.Code)
	}
}
