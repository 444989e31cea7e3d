package logger

import (
	"log/slog"
	"strings"
)

// Key patterns whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
}

const redactedValue = "***REDACTED***"

// redactSensitive hides string values under sensitive keys. KEY=VALUE
// strings (process environment entries) are redacted by their key.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if r := RedactString(v); r != v {
			return slog.String(a.Key, r)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindAny:
		if env, ok := a.Value.Any().([]string); ok {
			return slog.Any(a.Key, RedactEnv(env))
		}
	}
	return a
}

// RedactString redacts the value of a KEY=VALUE string whose key looks
// sensitive. Other strings are returned unchanged.
func RedactString(value string) string {
	k, v, ok := strings.Cut(value, "=")
	if !ok || k == "" || v == "" || strings.ContainsAny(k, " \t") {
		return value
	}
	if IsSensitiveKey(k) {
		return k + "=" + redactedValue
	}
	return value
}

// RedactEnv returns a copy of env with sensitive values redacted.
func RedactEnv(env []string) []string {
	out := make([]string, len(env))
	for i, kv := range env {
		out[i] = RedactString(kv)
	}
	return out
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
