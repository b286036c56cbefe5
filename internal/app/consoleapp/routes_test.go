package consoleapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/enums"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/domain/model"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
	redrepo "github.com/ivankudzin/tgapp/reviewdesk/internal/repo/redis"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
	ratesvc "github.com/ivankudzin/tgapp/reviewdesk/internal/services/rate"
	"github.com/ivankudzin/tgapp/reviewdesk/internal/transport/http/views"
)

type stubBackend struct {
	mu      sync.Mutex
	users   []model.User
	updates int
}

func (s *stubBackend) SignIn(_ context.Context, creds backendhttp.Credentials) (string, error) {
	if creds.Password == "secret" {
		return backendhttp.LoginSuccessMessage, nil
	}
	return "Invalid password", nil
}

func (s *stubBackend) ListPendingUsers(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users, nil
}

func (s *stubBackend) UpdateStatus(context.Context, string, enums.Decision, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	return "Status updated", nil
}

func newTestRouter(t *testing.T, backend *stubBackend, cfg config.Config) http.Handler {
	t.Helper()

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.NewNop())
	RegisterRoutes(r, Dependencies{
		Backend:   backend,
		Decisions: decisions.NewService(backend, nil, nil, time.Second, zap.NewNop()),
		Views:     renderer,
		Logger:    zap.NewNop(),
		Config:    cfg,
	})
	return r
}

func TestRoutesServePages(t *testing.T) {
	backend := &stubBackend{users: []model.User{{
		ID:             "u1",
		BusinessUserID: 7,
		Identity:       model.Identity{FirstName: "Mona", LastName: "Adel", Status: enums.StatusPending},
	}}}
	router := newTestRouter(t, backend, config.Default())

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: `name="national_id"`},
		{path: "/home", wantStatus: http.StatusOK, wantBody: "Showing 1-1 of 1 results"},
		{path: "/details/u1", wantStatus: http.StatusOK, wantBody: "Mona Adel"},
		{path: "/details/nope", wantStatus: http.StatusNotFound, wantBody: "User not found"},
		{path: "/history", wantStatus: http.StatusOK, wantBody: "Decision history is not configured."},
		{path: "/healthz", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{path: "/metrics", wantStatus: http.StatusOK, wantBody: "reviewdesk_http_requests_total"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.wantStatus {
				t.Fatalf("unexpected status for %s: %d", tc.path, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("expected %q in %s body", tc.wantBody, tc.path)
			}
		})
	}
}

func TestSignInRouteRedirects(t *testing.T) {
	router := newTestRouter(t, &stubBackend{}, config.Default())

	form := url.Values{"email": {"ops@example.com"}, "password": {"secret"}, "national_id": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/home" {
		t.Fatalf("expected redirect to /home, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRateLimitByIP(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.RateLimitPerMinute = 2
	router := newTestRouter(t, &stubBackend{}, cfg)

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the third request, got %d", last)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health must not be rate limited, got %d", rec.Code)
	}
}

func TestSignInPageShowsCooldownAfterFailedAttempts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	renderer, err := views.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	backend := &stubBackend{}
	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.NewNop())
	RegisterRoutes(r, Dependencies{
		Backend:   backend,
		Decisions: decisions.NewService(backend, nil, nil, time.Second, zap.NewNop()),
		Throttle:  ratesvc.NewLimiter(redrepo.NewRateRepo(client), 2),
		Views:     renderer,
		Logger:    zap.NewNop(),
		Config:    config.Default(),
	})

	get := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("10.0.0.7:4000"); rec.Code != http.StatusOK {
		t.Fatalf("fresh client must see the form, got %d", rec.Code)
	}

	form := url.Values{"email": {"ops@example.com"}, "password": {"wrong"}, "national_id": {"1"}}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "10.0.0.7:4000"
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	rec := get("10.0.0.7:4001")
	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), "Too many sign-in attempts") {
		t.Fatalf("expected cooldown notice, got %d", rec.Code)
	}
	if rec := get("10.0.0.8:4000"); rec.Code != http.StatusOK {
		t.Fatalf("other clients keep their own window, got %d", rec.Code)
	}

	mr.FastForward(61 * time.Second)
	if rec := get("10.0.0.7:4000"); rec.Code != http.StatusOK {
		t.Fatalf("cooldown must end with the window, got %d", rec.Code)
	}
}

func TestNewRejectsInvalidBackendURL(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.BaseURL = "not a url"
	if _, err := New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for invalid backend url")
	}
	if _, err := New(context.Background(), config.Default(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
