package notify

import (
	"context"
	"errors"
)

// Multi fans a message out to every target. Delivery is best-effort: one
// failing target does not stop the others.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
