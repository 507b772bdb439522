// Package notify defines the outbound notification contract. Delivery is
// fire-and-forget: failures are logged by the caller, never retried and never
// fatal.
package notify

import "context"

// Notifier delivers one text alert to an operator channel.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
