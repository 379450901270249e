package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/busguard/internal/auth"
	"github.com/geocoder89/busguard/internal/config"
	"github.com/geocoder89/busguard/internal/db"
	"github.com/geocoder89/busguard/internal/domain/session"
	httpx "github.com/geocoder89/busguard/internal/http"
	"github.com/geocoder89/busguard/internal/http/handlers"
	"github.com/geocoder89/busguard/internal/http/middlewares"
	"github.com/geocoder89/busguard/internal/observability"
	"github.com/geocoder89/busguard/internal/redisclient"
	"github.com/geocoder89/busguard/internal/repo/memory"
	"github.com/geocoder89/busguard/internal/repo/postgres"
	"github.com/geocoder89/busguard/internal/repo/redisrepo"
	"github.com/geocoder89/busguard/internal/routeguard"
	"github.com/geocoder89/busguard/internal/sessionstore"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	accountPolicy, err := session.ParseUnhandledAccountPolicy(cfg.UnhandledAccountPolicy)
	if err != nil {
		return err
	}
	rootPolicy, err := routeguard.ParseRootPolicy(cfg.RootPolicy)
	if err != nil {
		return err
	}

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{}

	// session records
	var repo sessionstore.Repository
	var purge *cron.Cron

	switch cfg.SessionBackend {
	case config.BackendRedis:
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()

		repo = redisrepo.NewSessionsRepo(rc.Raw(), cfg.SessionGrace)

	case config.BackendMemory:
		mem := memory.NewSessionsRepo()
		repo = mem

		job := sessionstore.NewPurgeJob(mem, cfg.SessionGrace, log, prom)
		purge, err = job.Start(cfg.SessionPurgeCron)
		if err != nil {
			return fmt.Errorf("schedule session purge: %w", err)
		}
		defer purge.Stop()

	default:
		return fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	checks["sessions"] = repo.Ping

	// authentication
	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL)

	var authn auth.Authenticator

	switch cfg.AuthMode {
	case config.AuthModeStub:
		log.Warn("stub authentication enabled: any credentials are accepted")
		authn = auth.NewStubAuthenticator(tokens)

	case config.AuthModePassword:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer pool.Close()

		users := postgres.NewUsersRepo(pool, prom)
		if err := users.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure users schema: %w", err)
		}

		n, err := db.EnsureAccounts(ctx, users, []db.SeedAccount{
			{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword, Name: "Administrator", Role: session.RoleAdministrator},
			{Email: cfg.SeedParentEmail, Password: cfg.SeedParentPassword, Name: "Parent", Role: session.RoleCustomer},
		})
		if err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}
		if n > 0 {
			log.Info("seeded accounts", "created", n)
		}

		checks["database"] = users.Ping
		authn = auth.NewPasswordAuthenticator(users, tokens)

	default:
		return fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}

	authn = auth.NewProtectedAuthenticator(authn, auth.ProtectedConfig{
		Timeout:          cfg.AuthTimeout,
		FailureThreshold: cfg.AuthBreakerThreshold,
		Cooldown:         cfg.AuthBreakerCooldown,
	})

	store := sessionstore.New(repo, authn, tokens)

	router, err := httpx.NewRouter(httpx.Deps{
		Env:         cfg.Env,
		ServiceName: cfg.ServiceName,
		Log:         log,

		Sessions: store,
		Cookies:  sessions.NewCookieStore([]byte(cfg.SessionKey)),
		Cookie: middlewares.CookieOptions{
			MaxAge:   int(cfg.SessionTTL.Seconds()),
			Secure:   cfg.CookieSecure,
			SameSite: cfg.CookieSameSite,
		},

		Guard:         routeguard.New(rootPolicy),
		AccountPolicy: accountPolicy,
		AuthTimeout:   cfg.AuthTimeout + time.Second,

		LoginLimiter:       middlewares.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,

		Prom:     prom,
		Gatherer: reg,
		Checks:   checks,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"auth_mode", cfg.AuthMode,
			"session_backend", cfg.SessionBackend,
			"root_policy", string(rootPolicy),
			"unhandled_account_policy", string(accountPolicy),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}
