package ports

import "context"

// Notifier delivers a message to a recipient. Retries, if any, belong to the implementation.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
