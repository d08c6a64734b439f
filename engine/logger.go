package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-shadow/internal/logging"
)

// SetLogger sets the logger used by the engine and every engine package.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used:
//   - Debug: per-frame detail
//   - Info: profiler reports
//   - Warn: recoverable problems (missing pipelines, clamped shadow bounds)
//   - Error: recovered frame panics and failed submissions
//
// SetLogger is safe for concurrent use.
//
// Parameters:
//   - l: the logger, or nil
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger. It is never nil.
func Logger() *slog.Logger {
	return logging.Logger()
}
