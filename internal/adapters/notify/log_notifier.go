package notify

import (
	"context"
	"log"
)

// LogNotifier writes messages to the process log instead of delivering them.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (LogNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	log.Printf("notify recipient=%s subject=%q body=%q", recipient, subject, body)
	return nil
}
