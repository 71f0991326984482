// Package logging defines the structured-logging interface used across the
// deployment pipeline and its slog-backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "contract deployed", "contract", name, "address", addr)
type Logger interface {
	// Debug logs detail useful only while diagnosing a run.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Component returns a child of l tagged with the pipeline stage that owns it.
// A nil l yields a logger that discards everything.
func Component(l Logger, name string) Logger {
	if l == nil {
		return Discard()
	}
	return l.With("component", name)
}
