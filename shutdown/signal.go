package shutdown

import (
	"context"
	"os/signal"
)

// Context is cancelled by the first interrupt or termination signal. Call
// stop to restore default signal handling.
func Context(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}
