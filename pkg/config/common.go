package config

import "strings"

// ParseLogLevel maps LOG_LEVEL style strings to the names slog understands.
// Unknown values fall back to "info".
func ParseLogLevel(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "trace":
		return "debug"
	case "warn", "warning":
		return "warn"
	case "error":
		return "error"
	default:
		return "info"
	}
}
