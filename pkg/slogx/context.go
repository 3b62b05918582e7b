package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext returns a context carrying the logger. Callers scope request
// metadata (user, command, correlation fields) onto the logger once and every
// dispatch under that context inherits it.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or nil when none was
// installed. Returning nil (rather than slog.Default) lets library code fall
// back to its own configured logger instead of hijacking the process default.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return nil
	}
	return l
}
