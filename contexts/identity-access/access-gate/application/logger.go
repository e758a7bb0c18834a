package application

import "log/slog"

// ResolveLogger lets use cases log without checking for a wired logger.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger
}
