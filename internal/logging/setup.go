package logging

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ParseLevel maps a config value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForFile returns a text logger when f is a terminal and a JSON logger
// otherwise.
func ForFile(f *os.File, level slog.Level) *SlogLogger {
	return New(f, !term.IsTerminal(int(f.Fd())), level)
}
