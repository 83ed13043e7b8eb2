package notify

import "context"

// Notifier defines the interface for pushing a message to the operator.
// This abstraction lets the delivery channel (Telegram, email, logs) be
// swapped without touching the feedback flow.
type Notifier interface {
	Publish(ctx context.Context, message string) error
}
