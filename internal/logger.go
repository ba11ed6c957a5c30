package internal

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the service logger. Development gets human readable
// text with source locations; other environments get JSON.
func NewLogger(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if env == "development" {
		opts.AddSource = true
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", "greenmarine")
}

// ParseLevel accepts slog level names in any case plus "warning".
// Anything unrecognised logs at info.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
