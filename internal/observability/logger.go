package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSecrets,
	})

	return slog.New(NewContextHandler(handler)).With("env", env)
}

// redactSecrets blanks attributes that must never reach the log stream.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	switch strings.ToLower(a.Key) {
	case "password", "confirm_password", "token", "session_secret", "cookie":
		return slog.String(a.Key, "[redacted]")
	}
	return a
}
