package ports

import "context"

// Notifier is the best-effort outbound notification capability (spec.md 7):
// failures are swallowed by the implementation and never block trading.
type Notifier interface {
	Notify(ctx context.Context, key, message string)
}
