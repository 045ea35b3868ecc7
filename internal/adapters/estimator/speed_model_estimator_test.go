package estimator

import (
	"context"
	"delivery-tracking-service/internal/adapters/distance"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hub   = domain.Location{Lat: 51.4906, Lon: 0.3097}
	stopA = domain.Location{Lat: 51.5, Lon: 0.32}
)

type memoryStore struct {
	model   ports.SpeedModel
	ok      bool
	saveErr error
	saves   int
}

func (s *memoryStore) LoadSpeedModel(context.Context) (ports.SpeedModel, bool, error) {
	return s.model, s.ok, nil
}

func (s *memoryStore) SaveSpeedModel(_ context.Context, m ports.SpeedModel) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.model, s.ok = m, true
	return nil
}

func newMock() *distance.MockDistanceProvider {
	return distance.NewMockDistanceProvider([]distance.MockPair{
		{From: hub, To: stopA, Meters: 10000},
		{From: stopA, To: hub, Meters: 10000},
		{From: hub, To: hub, Meters: 0},
	})
}

func TestETAUsesAverageSpeed(t *testing.T) {
	e, err := NewSpeedModelEstimator(context.Background(), newMock(), 40, nil)
	require.NoError(t, err)

	eta, err := e.ETA(context.Background(), hub, stopA)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, eta)
}

func TestUpdateSpeedModelChangesETA(t *testing.T) {
	ctx := context.Background()
	e, err := NewSpeedModelEstimator(ctx, newMock(), 40, nil)
	require.NoError(t, err)

	// 10 km in 6 minutes = 100 km/h; mean of 40 and 100 is 70.
	require.NoError(t, e.UpdateSpeedModel(ctx, hub, stopA, 6*time.Minute))
	assert.InDelta(t, 70.0, e.Model().AverageSpeedKmh, 1e-9)
	assert.Equal(t, 2, e.Model().Samples)

	eta, err := e.ETA(ctx, stopA, hub)
	require.NoError(t, err)
	assert.InDelta(t, (10.0/70.0)*60, eta.Minutes(), 1e-6)
}

func TestUpdateSpeedModelRejectsDegenerateLegs(t *testing.T) {
	ctx := context.Background()
	e, err := NewSpeedModelEstimator(ctx, newMock(), 40, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, e.UpdateSpeedModel(ctx, hub, stopA, 0), ErrNonPositiveElapsed)
	assert.ErrorIs(t, e.UpdateSpeedModel(ctx, hub, stopA, -time.Minute), ErrNonPositiveElapsed)
	assert.ErrorIs(t, e.UpdateSpeedModel(ctx, hub, hub, time.Minute), ErrZeroDistance)
	assert.Equal(t, 1, e.Model().Samples, "rejected legs must not touch the model")
}

func TestSpeedModelPersistence(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{model: ports.SpeedModel{AverageSpeedKmh: 60, Samples: 5}, ok: true}

	e, err := NewSpeedModelEstimator(ctx, newMock(), 40, store)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, e.Model().AverageSpeedKmh, 1e-9, "stored model wins over the initial speed")

	require.NoError(t, e.UpdateSpeedModel(ctx, hub, stopA, 10*time.Minute))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 6, store.model.Samples)

	store.saveErr = errors.New("disk full")
	err = e.UpdateSpeedModel(ctx, hub, stopA, 10*time.Minute)
	assert.ErrorIs(t, err, store.saveErr)
	assert.ErrorIs(t, err, ports.ErrSpeedModelNotPersisted)
	assert.Equal(t, 7, e.Model().Samples, "in-memory model is updated even when persisting fails")
}

func TestETAWithHaversine(t *testing.T) {
	warsaw := domain.Location{Lat: 52.2296756, Lon: 21.0122287}
	poznan := domain.Location{Lat: 52.406374, Lon: 16.9251681}

	e, err := NewSpeedModelEstimator(context.Background(), distance.NewHaversineDistanceProvider(), 0, nil)
	require.NoError(t, err)

	eta, err := e.ETA(context.Background(), warsaw, poznan)
	require.NoError(t, err)
	// ~278.5 km at the default 50 km/h.
	assert.InDelta(t, 278.5/DefaultAverageSpeedKmh*60, eta.Minutes(), 3)
}
