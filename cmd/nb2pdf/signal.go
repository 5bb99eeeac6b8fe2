package main

import (
	"context"
	"os/signal"
)

// notifyContext returns a context cancelled on the first shutdown signal.
// In-flight conversions stop, their temp files are removed, and the
// remaining files of a batch are reported as cancelled. Call stop() to
// release resources.
func notifyContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
