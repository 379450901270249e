package handlers

import (
	"net/http"

	"github.com/geocoder89/busguard/internal/dashboard"
	"github.com/geocoder89/busguard/internal/http/middlewares"
	"github.com/geocoder89/busguard/internal/routeguard"
	"github.com/geocoder89/busguard/internal/views"
	"github.com/gin-gonic/gin"
)

type GuardObserver interface {
	ObserveGuard(view, outcome string)
}

type PagesHandler struct {
	guard   *routeguard.Guard
	metrics GuardObserver
}

func NewPagesHandler(guard *routeguard.Guard, metrics GuardObserver) *PagesHandler {
	return &PagesHandler{guard: guard, metrics: metrics}
}

// Navigate serves every page path through the route guard.
func (h *PagesHandler) Navigate(c *gin.Context) {
	s, _ := middlewares.SessionFromContext(c)

	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		h.observe(string(routeguard.ViewNotFound), "not_found")
		c.HTML(http.StatusNotFound, views.NotFoundPage, views.Page{Title: "Page not found", Session: s, Path: c.Request.URL.Path})
		return
	}

	d := h.guard.Decide(c.Request.URL.Path, s)

	view := string(d.View)
	if view == "" {
		view = "none"
	}
	h.observe(view, d.Outcome())

	if d.IsRedirect() {
		c.Redirect(http.StatusFound, d.Redirect)
		return
	}

	switch d.View {
	case routeguard.ViewLogin:
		form := views.NewLoginForm()
		form.Expired = middlewares.SessionExpired(c)
		RenderLogin(c, http.StatusOK, form)

	case routeguard.ViewAdmin:
		data := dashboard.AdminOverview()
		c.HTML(http.StatusOK, views.AdminPage, views.Page{Title: data.Title, Session: s, Path: c.Request.URL.Path, Admin: &data})

	case routeguard.ViewCustomer:
		data := dashboard.ParentOverview()
		c.HTML(http.StatusOK, views.CustomerPage, views.Page{Title: data.Title, Session: s, Path: c.Request.URL.Path, Parent: &data})

	default:
		c.HTML(http.StatusNotFound, views.NotFoundPage, views.Page{Title: "Page not found", Session: s, Path: c.Request.URL.Path})
	}
}

// RenderLogin writes the login page with the given status.
func RenderLogin(c *gin.Context, status int, form *views.LoginForm) {
	s, _ := middlewares.SessionFromContext(c)

	c.HTML(status, views.LoginPage, views.Page{
		Title:   "Sign in",
		Session: s,
		Path:    routeguard.LoginPath,
		Login:   form,
	})
}

func (h *PagesHandler) observe(view, outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveGuard(view, outcome)
	}
}
