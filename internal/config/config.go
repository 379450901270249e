package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// AuthMode selects the authenticator: "stub" accepts any credentials,
	// "password" checks the users table.
	AuthMode string

	// SessionBackend is "memory" or "redis".
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	SessionKey     string
	SessionTTL     time.Duration
	SessionGrace   time.Duration
	CookieSecure   bool
	CookieSameSite string

	JWTSecret string

	UnhandledAccountPolicy string
	RootPolicy             string

	SessionPurgeCron string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	AuthTimeout          time.Duration
	AuthBreakerThreshold int
	AuthBreakerCooldown  time.Duration

	DBURL string

	SeedAdminEmail     string
	SeedAdminPassword  string
	SeedParentEmail    string
	SeedParentPassword string

	OTLPEndpoint string
	ServiceName  string

	CORSAllowedOrigins []string
}

const (
	AuthModeStub     = "stub"
	AuthModePassword = "password"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 8080),

		AuthMode: strings.ToLower(getEnv("AUTH_MODE", AuthModeStub)),

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),

		SessionKey:     getEnv("SESSION_KEY", "dev-session-key-change-me-32bytes"),
		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		SessionGrace:   time.Duration(getEnvInt("SESSION_GRACE_MINUTES", 60)) * time.Minute,
		CookieSecure:   getEnvBool("COOKIE_SECURE", env == "prod"),
		CookieSameSite: getEnv("COOKIE_SAMESITE", "lax"),

		JWTSecret: getEnv("JWT_SECRET", "dev-jwt-secret-change-me"),

		UnhandledAccountPolicy: getEnv("UNHANDLED_ACCOUNT_POLICY", ""),
		RootPolicy:             getEnv("ROOT_POLICY", ""),

		SessionPurgeCron: getEnv("SESSION_PURGE_CRON", ""),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,

		AuthTimeout:          time.Duration(getEnvInt("AUTH_TIMEOUT_MS", 3000)) * time.Millisecond,
		AuthBreakerThreshold: getEnvInt("AUTH_BREAKER_THRESHOLD", 3),
		AuthBreakerCooldown:  time.Duration(getEnvInt("AUTH_BREAKER_COOLDOWN_SECONDS", 15)) * time.Second,

		DBURL: buildDBURL(),

		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedParentEmail:    getEnv("SEED_PARENT_EMAIL", ""),
		SeedParentPassword: getEnv("SEED_PARENT_PASSWORD", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "busguard"),

		CORSAllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "busguard")
	pass := getEnv("DB_PASSWORD", "busguard")
	name := getEnv("DB_NAME", "busguard")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return num
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}

	return b
}

func parseCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
