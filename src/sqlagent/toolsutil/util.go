package toolsutil

import (
	"io"
	"log/slog"
	"strings"
)

// Package-level logger for tools
var logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

// SetLogger allows setting a custom logger for the tools package
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// GetLogger returns the tools logger
func GetLogger() *slog.Logger {
	return logger
}

// SplitList splits a comma-separated list, trimming each item. Empty items are
// dropped and counted in skipped.
func SplitList(s string) (items []string, skipped int) {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			skipped++
			continue
		}
		items = append(items, part)
	}
	return items, skipped
}

// Truncate shortens s to at most n runes, marking the cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
