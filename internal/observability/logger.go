package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger that tags records with the active trace.
// It also becomes the slog default.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	log := slog.New(NewTraceHandler(handler))
	slog.SetDefault(log)

	return log
}
