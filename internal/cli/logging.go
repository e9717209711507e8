package cli

import (
	"io"
	"log/slog"
)

// newLogger returns the stderr logger every command uses. Warnings and
// errors are always shown; --verbose adds debug detail.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
