package integration__test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/geocoder89/busguard/internal/auth"
	"github.com/geocoder89/busguard/internal/domain/session"
	apphttp "github.com/geocoder89/busguard/internal/http"
	"github.com/geocoder89/busguard/internal/http/handlers"
	"github.com/geocoder89/busguard/internal/http/middlewares"
	"github.com/geocoder89/busguard/internal/observability"
	"github.com/geocoder89/busguard/internal/repo/memory"
	"github.com/geocoder89/busguard/internal/routeguard"
	"github.com/geocoder89/busguard/internal/sessionstore"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
)

type testApp struct {
	router http.Handler
	repo   *memory.SessionsRepo
	now    *time.Time
}

type appOption func(*apphttp.Deps)

func withRootPolicy(p routeguard.RootPolicy) appOption {
	return func(d *apphttp.Deps) { d.Guard = routeguard.New(p) }
}

func withAccountPolicy(p session.UnhandledAccountPolicy) appOption {
	return func(d *apphttp.Deps) { d.AccountPolicy = p }
}

func withLoginLimit(n int) appOption {
	return func(d *apphttp.Deps) { d.LoginLimiter = middlewares.NewRateLimiter(n, time.Minute) }
}

func setupApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Now()
	clock := func() time.Time { return now }

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tokens := auth.NewManager("test-secret-key", 30*time.Minute).WithClock(clock)
	repo := memory.NewSessionsRepo()
	store := sessionstore.New(repo, auth.NewStubAuthenticator(tokens), tokens).WithClock(clock)

	reg := prometheus.NewRegistry()

	deps := apphttp.Deps{
		Env:          "test",
		Log:          logger,
		Sessions:     store,
		Cookies:      sessions.NewCookieStore([]byte("integration-test-session-key-32b")),
		Cookie:       middlewares.CookieOptions{MaxAge: 3600, SameSite: "lax"},
		Guard:        routeguard.New(routeguard.RootAlwaysLogin),
		LoginLimiter: middlewares.NewRateLimiter(100, time.Minute),
		Prom:         observability.NewProm(reg),
		Gatherer:     reg,
		Checks: map[string]handlers.Check{
			"sessions": store.Ping,
		},
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router, err := apphttp.NewRouter(deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	return &testApp{router: router, repo: repo, now: &now}
}

// function that runs a request and returns a recorder and parsed response for cookies
func doRequest(router http.Handler, method, path, contentType, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Response) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.RemoteAddr = "192.0.2.10:40000"

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Result()
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

// browser keeps the most recent session cookie between requests.
type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, router: a.router}
}

func (b *browser) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	b.t.Helper()

	w, resp := doRequest(b.router, method, path, contentType, body, b.cookie)
	for _, c := range resp.Cookies() {
		if c.Name == middlewares.SessionCookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, "", "")
}

func (b *browser) submitLogin(email, password, accountType string) *httptest.ResponseRecorder {
	form := url.Values{
		"email":        {email},
		"password":     {password},
		"account_type": {accountType},
	}
	return b.do(http.MethodPost, "/login", "application/x-www-form-urlencoded", form.Encode())
}

func (b *browser) logout() *httptest.ResponseRecorder {
	return b.do(http.MethodPost, "/logout", "application/x-www-form-urlencoded", "")
}

func (b *browser) api(method, body string) *httptest.ResponseRecorder {
	ct := ""
	if method == http.MethodPost {
		ct = "application/json"
	}
	return b.do(method, "/api/session", ct, body)
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, status int, location string) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, status, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

type sessionResponse struct {
	Session struct {
		IsAuthenticated bool    `json:"isAuthenticated"`
		Role            *string `json:"role"`
	} `json:"session"`
	Expired  bool   `json:"expired"`
	Redirect string `json:"redirect"`
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}
