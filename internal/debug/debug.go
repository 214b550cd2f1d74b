// Package debug has small helpers for stage-level debug logging.
package debug

import (
	"context"
	"log/slog"
	"time"
)

// Timing logs the start of an operation and returns a func that logs its
// completion with the elapsed time. Both records are at debug level, so
// the cost is a level check when debugging is off.
func Timing(log *slog.Logger, operation string, args ...any) func() {
	if log == nil {
		log = slog.Default()
	}
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return func() {}
	}

	start := time.Now()
	log.Debug("starting "+operation, args...)
	return func() {
		log.Debug("completed "+operation, append(args, "took", time.Since(start))...)
	}
}
