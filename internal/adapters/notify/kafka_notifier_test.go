package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaNotifierPublishesKeyedPayload(t *testing.T) {
	w := &fakeWriter{}
	n, err := NewKafkaNotifier(w)
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	require.NoError(t, n.Send(context.Background(), "a@example.com", "subj", "body"))
	require.Len(t, w.msgs, 1)

	assert.Equal(t, "a@example.com", string(w.msgs[0].Key))

	var got notificationPayload
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "subj", got.Subject)
	assert.Equal(t, "body", got.Body)
	assert.True(t, got.SentAt.Equal(fixed))
}

func TestKafkaNotifierWrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	n, err := NewKafkaNotifier(&fakeWriter{err: boom})
	require.NoError(t, err)

	err = n.Send(context.Background(), "a@example.com", "subj", "body")
	assert.ErrorIs(t, err, boom)
}
