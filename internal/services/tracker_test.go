package services

import (
	"context"
	"delivery-tracking-service/internal/adapters/notify"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRepo struct {
	mu    sync.Mutex
	saved []domain.Delivery
}

func (r *recordingRepo) ListDeliveries(context.Context) ([]domain.Delivery, error) { return nil, nil }

func (r *recordingRepo) SaveDeliveryStatus(_ context.Context, d domain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, d)
	return nil
}

func (r *recordingRepo) UpsertDeliveries(context.Context, []domain.Delivery) error { return nil }

func startTracker(t *testing.T, deliveries []domain.Delivery, repo *recordingRepo) (*Tracker, *notify.RecordingNotifier) {
	t.Helper()

	n := notify.NewRecordingNotifier()
	c, err := NewDeliveryController(deliveries, n, &fakeEstimator{eta: time.Minute})
	require.NoError(t, err)

	var r ports.ScheduleRepository
	if repo != nil {
		r = repo
	}
	tr := NewTracker(c, r)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tr.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return tr, n
}

func TestTrackerSubmitPersistsMatches(t *testing.T) {
	repo := &recordingRepo{}
	tr, n := startTracker(t, []domain.Delivery{delivery("a", "a@example.com", locA, noon)}, repo)

	out, err := tr.Submit(context.Background(), domain.DeliveryEvent{ID: "a", TimeOfDelivery: noon, Location: locA})
	require.NoError(t, err)
	assert.True(t, out.Matched)

	_, err = tr.Submit(context.Background(), domain.DeliveryEvent{ID: "zzz", TimeOfDelivery: noon, Location: locA})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, "a", repo.saved[0].ID)
	assert.True(t, repo.saved[0].Arrived)
	assert.Len(t, n.Sent(), 1)
}

func TestTrackerSerializesConcurrentSubmits(t *testing.T) {
	deliveries := make([]domain.Delivery, 0, 50)
	for i := 0; i < 50; i++ {
		deliveries = append(deliveries, delivery(string(rune('A'+i)), "x@example.com", locA, noon))
	}
	tr, n := startTracker(t, deliveries, nil)

	var wg sync.WaitGroup
	for _, d := range deliveries {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := tr.Submit(context.Background(), domain.DeliveryEvent{ID: id, TimeOfDelivery: noon, Location: locA})
			assert.NoError(t, err)
		}(d.ID)
	}
	wg.Wait()

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	for _, d := range snap {
		assert.True(t, d.Arrived, "delivery %s", d.ID)
	}
	// One feedback per delivery plus one ETA per delivery that has a successor.
	assert.Len(t, n.Sent(), 50+49)
}

func TestTrackerStopped(t *testing.T) {
	c, err := NewDeliveryController(nil, notify.NewRecordingNotifier(), &fakeEstimator{})
	require.NoError(t, err)
	tr := NewTracker(c, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tr.Run(ctx), context.Canceled)

	_, err = tr.Submit(context.Background(), domain.DeliveryEvent{ID: "a"})
	assert.ErrorIs(t, err, ErrTrackerStopped)
}
