package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/geocoder89/busguard/internal/http/handlers"
	"github.com/geocoder89/busguard/internal/http/middlewares"
	"github.com/geocoder89/busguard/internal/observability"
	"github.com/geocoder89/busguard/internal/routeguard"
	"github.com/geocoder89/busguard/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 16 << 10

// SessionBackend is what the router needs from the session store.
type SessionBackend interface {
	handlers.SessionService
}

type Deps struct {
	Env         string
	ServiceName string
	Log         *slog.Logger

	Sessions SessionBackend
	Cookies  sessions.Store
	Cookie   middlewares.CookieOptions

	Guard         *routeguard.Guard
	AccountPolicy session.UnhandledAccountPolicy
	AuthTimeout   time.Duration

	LoginLimiter       *middlewares.RateLimiter
	CORSAllowedOrigins []string

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Checks map[string]handlers.Check
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Guard == nil {
		d.Guard = routeguard.New(routeguard.RootAlwaysLogin)
	}
	if d.ServiceName == "" {
		d.ServiceName = "busguard"
	}

	tmpl, err := views.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(d.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())

	// probes and metrics skip the session cookie
	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	withSession := middlewares.SessionMiddleware(d.Cookies, d.Sessions, d.Cookie, d.Log)

	authHandler := handlers.NewAuthHandler(d.Sessions, handlers.AuthConfig{
		Policy:  d.AccountPolicy,
		Cookie:  d.Cookie,
		Timeout: d.AuthTimeout,
	}, d.Prom, d.Log)
	pages := handlers.NewPagesHandler(d.Guard, d.Prom)

	limiter := d.LoginLimiter
	if limiter == nil {
		limiter = middlewares.NewRateLimiter(10, time.Minute)
	}
	formLimited := limiter.RateLimiterMiddleware(middlewares.KeyByIP, func(c *gin.Context) {
		form := views.NewLoginForm()
		form.Error = "Too many sign in attempts. Please wait and try again."
		handlers.RenderLogin(c, http.StatusTooManyRequests, form)
	})
	apiLimited := limiter.RateLimiterMiddleware(middlewares.KeyByIP, nil)

	// pages
	site := r.Group("/", withSession)
	site.GET("/login", pages.Navigate)
	site.POST("/login", middlewares.MaxBodyBytes(maxBodyBytes), formLimited, authHandler.Login)
	site.POST("/logout", authHandler.Logout)

	// JSON session API
	api := r.Group("/api",
		middlewares.CORSMiddleware(d.CORSAllowedOrigins),
		middlewares.MaxBodyBytes(maxBodyBytes),
		middlewares.RequireJSON(),
		withSession,
	)
	api.OPTIONS("/session", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api.GET("/session", authHandler.GetSession)
	api.POST("/session", apiLimited, authHandler.CreateSession)
	api.DELETE("/session", authHandler.DeleteSession)

	// everything else, including "/", "/admin/..." and "/customer/...",
	// goes through the route guard
	r.NoRoute(withSession, pages.Navigate)

	return r, nil
}
