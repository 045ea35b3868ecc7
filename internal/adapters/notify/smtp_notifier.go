package notify

import (
	"bytes"
	"context"
	"delivery-tracking-service/internal/platform/obs"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"sync/atomic"
	"time"
)

const DefaultFromAddress = "noreply@example.com"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text email through an SMTP relay.
// Transient network failures are retried with exponential backoff.
// The notifier is safe for concurrent use.
type SMTPNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
	sent     atomic.Int64
}

func NewSMTPNotifier(addr, from string, auth smtp.Auth) (*SMTPNotifier, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("smtp notifier: addr is empty")
	}
	if strings.TrimSpace(from) == "" {
		from = DefaultFromAddress
	}

	return &SMTPNotifier{
		addr:     addr,
		from:     from,
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// ComposeMessage builds the RFC 5322 message sent for one notification.
func (n *SMTPNotifier) ComposeMessage(recipient, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) (err error) {
	defer obs.Time(ctx, "smtp.Send")(&err)

	if strings.TrimSpace(recipient) == "" {
		return errors.New("smtp send: recipient must be non-empty")
	}

	msg := n.ComposeMessage(recipient, subject, body)

	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = n.sendMail(n.addr, n.auth, n.from, []string{recipient}, msg)
		if lastErr == nil {
			n.sent.Add(1)
			return nil
		}

		var netErr net.Error
		if !errors.As(lastErr, &netErr) || attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return fmt.Errorf("smtp send to %q: %w", recipient, lastErr)
}

// Sent reports how many messages were accepted by the relay.
func (n *SMTPNotifier) Sent() int64 { return n.sent.Load() }
