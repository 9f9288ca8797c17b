package interfaces

import "context"

// Notifier dispatches a human-readable summary out of band. Failures are
// local to reporting and must not block trading.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}
