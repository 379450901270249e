package integration__test

import (
	"net/http"
	"strings"
	"testing"
)

func TestSessionAPI_LoginReadLogout(t *testing.T) {
	app := setupApp(t)
	b := app.browser(t)

	w := b.api(http.MethodGet, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get session: %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"role":null`) {
		t.Fatalf("logged-out session should render null role: %s", body)
	}

	w = b.api(http.MethodPost, `{"identifier":"admin@school.test","secret":"x","accountType":"admin"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d body=%s", w.Code, w.Body.String())
	}

	var login sessionResponse
	mustReadJSON(t, w, &login)
	if !login.Session.IsAuthenticated || login.Session.Role == nil || *login.Session.Role != "administrator" {
		t.Fatalf("unexpected session: %+v", login.Session)
	}
	if login.Redirect != "/admin" {
		t.Fatalf("redirect = %q", login.Redirect)
	}

	var current sessionResponse
	mustReadJSON(t, b.api(http.MethodGet, ""), &current)
	if !current.Session.IsAuthenticated || current.Expired {
		t.Fatalf("session after login: %+v", current)
	}

	if w := b.api(http.MethodDelete, ""); w.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", w.Code)
	}

	mustReadJSON(t, b.api(http.MethodGet, ""), &current)
	if current.Session.IsAuthenticated || current.Session.Role != nil {
		t.Fatalf("session after logout: %+v", current)
	}
}

func TestSessionAPI_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(b *browser)
		body   string
		status int
		code   string
	}{
		{
			name:   "validation",
			body:   `{"identifier":"a","secret":"b","accountType":"conductor"}`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "bad json",
			body:   `{"identifier":`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name: "role switch",
			setup: func(b *browser) {
				b.api(http.MethodPost, `{"identifier":"a","secret":"b","accountType":"parent"}`)
			},
			body:   `{"identifier":"a","secret":"b","accountType":"admin"}`,
			status: http.StatusConflict,
			code:   "role_switch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t)
			b := app.browser(t)
			if tt.setup != nil {
				tt.setup(b)
			}

			w := b.api(http.MethodPost, tt.body)
			if w.Code != tt.status {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.status, w.Body.String())
			}

			var resp errorResponse
			mustReadJSON(t, w, &resp)
			if resp.Error.Code != tt.code {
				t.Fatalf("code = %q, want %q", resp.Error.Code, tt.code)
			}
			if resp.Error.RequestID == "" {
				t.Fatal("expected requestId in error envelope")
			}
		})
	}
}

func TestSessionAPI_RequiresJSON(t *testing.T) {
	app := setupApp(t)
	b := app.browser(t)

	w := b.do(http.MethodPost, "/api/session", "text/plain", "identifier=a")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("got %d, want 415", w.Code)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	app := setupApp(t)
	b := app.browser(t)

	if w := b.get("/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}

	w := b.get("/readyz")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sessions":"up"`) {
		t.Fatalf("readyz: %d %s", w.Code, w.Body.String())
	}
	if b.cookie != nil {
		t.Fatal("probes should not issue session cookies")
	}

	b.submitLogin("admin@school.test", "x", "admin")
	b.get("/admin")

	w = b.get("/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`busguard_session_login_attempts_total{account_type="admin",result="success"} 1`,
		`busguard_guard_decisions_total{outcome="render",view="admin"} 1`,
		"busguard_http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
