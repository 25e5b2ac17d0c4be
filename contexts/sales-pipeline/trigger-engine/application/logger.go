package application

import "log/slog"

// ResolveLogger returns the given logger or the process default.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
