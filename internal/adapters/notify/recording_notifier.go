package notify

import (
	"context"
	"sync"
)

type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// RecordingNotifier keeps every message it is asked to send.
// Failures can be injected per recipient.
type RecordingNotifier struct {
	mu     sync.Mutex
	sent   []Message
	failOn map[string]error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{failOn: map[string]error{}}
}

// FailFor makes every Send to recipient return err.
func (n *RecordingNotifier) FailFor(recipient string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failOn[recipient] = err
}

func (n *RecordingNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err, ok := n.failOn[recipient]; ok {
		return err
	}
	n.sent = append(n.sent, Message{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (n *RecordingNotifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Message, len(n.sent))
	copy(out, n.sent)
	return out
}
