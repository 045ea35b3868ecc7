package notify

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestSMTPComposeMessage(t *testing.T) {
	n, err := NewSMTPNotifier("localhost:25", "", nil)
	require.NoError(t, err)

	msg := string(n.ComposeMessage("seb@gmail.com", "kata", "hello world"))

	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "To: seb@gmail.com\r\n")
	assert.Contains(t, msg, "Subject: kata\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nhello world"), "body should follow the header block: %q", msg)
}

func TestSMTPSend(t *testing.T) {
	n, err := NewSMTPNotifier("localhost:25", "", nil)
	require.NoError(t, err)

	calls := 0
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		assert.Equal(t, "localhost:25", addr)
		assert.Equal(t, DefaultFromAddress, from)
		assert.Equal(t, []string{"seb@gmail.com"}, to)
		return nil
	}

	require.NoError(t, n.Send(context.Background(), "seb@gmail.com", "kata", "hello world"))
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 1, n.Sent())
}

func TestSMTPSendRetriesNetworkErrors(t *testing.T) {
	n, err := NewSMTPNotifier("localhost:25", "", nil)
	require.NoError(t, err)

	calls := 0
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		if calls == 1 {
			return timeoutErr{}
		}
		return nil
	}

	require.NoError(t, n.Send(context.Background(), "seb@gmail.com", "kata", "hello"))
	assert.Equal(t, 2, calls)
}

func TestSMTPSendDoesNotRetryPermanentErrors(t *testing.T) {
	n, err := NewSMTPNotifier("localhost:25", "", nil)
	require.NoError(t, err)

	permanent := errors.New("550 mailbox unavailable")
	calls := 0
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return permanent
	}

	err = n.Send(context.Background(), "seb@gmail.com", "kata", "hello")
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.EqualValues(t, 0, n.Sent())
}

func TestNewSMTPNotifierRequiresAddr(t *testing.T) {
	_, err := NewSMTPNotifier(" ", "", nil)
	assert.Error(t, err)
}
