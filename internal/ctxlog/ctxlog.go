// SPDX-License-Identifier: MPL-2.0

// Package ctxlog provides a context key for safely passing a log.Logger
// instance through context.Context.
//
// Library code never constructs its own logger: the CLI layer installs one at
// the top of every invocation, and resolution, discovery, and migration pull
// it back out at debug points. A context without a logger yields the global
// default, so tests can call library functions with a bare context.Background.
package ctxlog

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// loggerKey is the key for the log.Logger in a context.Context.
var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the log.Logger from a context. If no logger is
// found, it returns the default global logger.
func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return logger
	}
	return log.Default()
}

// Nop returns a logger that discards everything. Handy for tests that
// exercise code paths with logging but don't assert on log output.
func Nop() *log.Logger {
	return log.New(io.Discard)
}
