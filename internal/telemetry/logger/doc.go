// Package logger provides structured logging for worldsnap.
//
//   - logger.go: slog handler construction and runtime level control
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction
//
// Loggers are plain *slog.Logger values so that packages outside the
// server can accept them without importing this package.
package logger
