package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds the process logger from a level (debug, info, warn, error)
// and a format (json or text), and installs it as the slog default.
func NewLogger(level, format string) *slog.Logger {
	logger := sharedobs.NewLogger(level, format).With("service", "reunion-climate-etl")
	slog.SetDefault(logger)
	return logger
}
