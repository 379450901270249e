// Package routeguard maps a requested path and the current session to the
// view that may be rendered, or to a redirect.
package routeguard

import (
	"fmt"
	"strings"

	"github.com/geocoder89/busguard/internal/domain/session"
)

const (
	LoginPath    = "/login"
	RootPath     = "/"
	AdminPath    = "/admin"
	CustomerPath = "/customer"
)

type View string

const (
	ViewLogin    View = "login"
	ViewAdmin    View = "admin"
	ViewCustomer View = "customer"
	ViewNotFound View = "not_found"
)

// RootPolicy controls what "/" does.
type RootPolicy string

const (
	// RootAlwaysLogin redirects "/" to the login page even for logged-in users.
	RootAlwaysLogin RootPolicy = "login"
	// RootDashboard sends logged-in users to their section home.
	RootDashboard RootPolicy = "dashboard"
)

func ParseRootPolicy(raw string) (RootPolicy, error) {
	switch p := RootPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case RootAlwaysLogin, RootDashboard:
		return p, nil
	case "":
		return RootAlwaysLogin, nil
	default:
		return "", fmt.Errorf("unknown root policy %q", raw)
	}
}

// Decision is either a view to render or a path to redirect to.
type Decision struct {
	View     View
	Redirect string
}

func (d Decision) IsRedirect() bool { return d.Redirect != "" }

// Outcome is a short label used for logs and metrics.
func (d Decision) Outcome() string {
	switch {
	case d.IsRedirect():
		return "redirect"
	case d.View == ViewNotFound:
		return "not_found"
	default:
		return "render"
	}
}

type Guard struct {
	root RootPolicy
}

func New(root RootPolicy) *Guard {
	if root == "" {
		root = RootAlwaysLogin
	}
	return &Guard{root: root}
}

func (g *Guard) RootPolicy() RootPolicy { return g.root }

// Decide is deterministic and case-sensitive on path.
func (g *Guard) Decide(path string, s session.Session) Decision {
	switch {
	case path == LoginPath:
		return Decision{View: ViewLogin}

	case inSection(path, AdminPath):
		if s.Is(session.RoleAdministrator) {
			return Decision{View: ViewAdmin}
		}
		return toLogin()

	case inSection(path, CustomerPath):
		if s.Is(session.RoleCustomer) {
			return Decision{View: ViewCustomer}
		}
		return toLogin()

	case path == RootPath:
		if g.root == RootDashboard && s.IsAuthenticated {
			if home, ok := HomeFor(s.Role); ok {
				return Decision{Redirect: home}
			}
		}
		return toLogin()

	default:
		return Decision{View: ViewNotFound}
	}
}

// HomeFor returns the section home a role lands on after login.
func HomeFor(role session.Role) (string, bool) {
	switch role {
	case session.RoleAdministrator:
		return AdminPath, true
	case session.RoleCustomer:
		return CustomerPath, true
	default:
		return "", false
	}
}

func toLogin() Decision {
	return Decision{Redirect: LoginPath}
}

// inSection matches the section root and anything nested below it, but not
// siblings sharing a prefix such as "/administrator".
func inSection(path, section string) bool {
	return path == section || strings.HasPrefix(path, section+"/")
}
