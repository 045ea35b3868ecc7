package estimator

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/ports"
	"errors"
	"fmt"
	"sync"
	"time"
)

const DefaultAverageSpeedKmh = 50.0

var (
	ErrNonPositiveElapsed = errors.New("elapsed duration must be positive")
	ErrZeroDistance       = errors.New("leg has zero distance")
)

// SpeedModelEstimator derives ETAs from distance and a running average speed.
//
// The average starts at the configured speed, which counts as one sample.
// Each observed leg adds its speed to the mean. When a store is set the
// model is restored at construction and saved after every update.
// The estimator is safe for concurrent use.
type SpeedModelEstimator struct {
	provider ports.DistanceProvider
	store    ports.SpeedModelStore

	mu    sync.RWMutex
	model ports.SpeedModel
}

func NewSpeedModelEstimator(
	ctx context.Context,
	provider ports.DistanceProvider,
	initialSpeedKmh float64,
	store ports.SpeedModelStore,
) (*SpeedModelEstimator, error) {
	if provider == nil {
		return nil, errors.New("new speed model estimator: provider must be non-nil")
	}
	if initialSpeedKmh <= 0 {
		initialSpeedKmh = DefaultAverageSpeedKmh
	}

	e := &SpeedModelEstimator{
		provider: provider,
		store:    store,
		model:    ports.SpeedModel{AverageSpeedKmh: initialSpeedKmh, Samples: 1},
	}

	if store != nil {
		m, ok, err := store.LoadSpeedModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("new speed model estimator: %w", err)
		}
		if ok && m.AverageSpeedKmh > 0 && m.Samples > 0 {
			e.model = m
		}
	}

	return e, nil
}

// Model returns the current speed model.
func (e *SpeedModelEstimator) Model() ports.SpeedModel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

func (e *SpeedModelEstimator) ETA(ctx context.Context, origin, destination domain.Location) (_ time.Duration, err error) {
	defer obs.Time(ctx, "estimator.ETA")(&err)

	r, err := e.provider.GetDistance(ctx, origin, destination)
	if err != nil {
		return 0, fmt.Errorf("eta: get distance: %w", err)
	}

	speed := e.Model().AverageSpeedKmh
	km := float64(r.DistanceMeters) / 1000
	return time.Duration(km / speed * float64(time.Hour)), nil
}

// UpdateSpeedModel folds the speed observed between from and to into the average.
// The in-memory model is updated even if persisting it fails.
func (e *SpeedModelEstimator) UpdateSpeedModel(
	ctx context.Context,
	from domain.Location,
	to domain.Location,
	elapsed time.Duration,
) (err error) {
	defer obs.Time(ctx, "estimator.UpdateSpeedModel")(&err)

	if elapsed <= 0 {
		return fmt.Errorf("update speed model: elapsed=%s: %w", elapsed, ErrNonPositiveElapsed)
	}

	r, err := e.provider.GetDistance(ctx, from, to)
	if err != nil {
		return fmt.Errorf("update speed model: get distance: %w", err)
	}
	if r.DistanceMeters <= 0 {
		return fmt.Errorf("update speed model: %w", ErrZeroDistance)
	}

	observed := float64(r.DistanceMeters) / 1000 / elapsed.Hours()

	e.mu.Lock()
	n := float64(e.model.Samples)
	e.model.AverageSpeedKmh = (e.model.AverageSpeedKmh*n + observed) / (n + 1)
	e.model.Samples++
	snapshot := e.model
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveSpeedModel(ctx, snapshot); err != nil {
			return fmt.Errorf("update speed model: %w: %w", ports.ErrSpeedModelNotPersisted, err)
		}
	}

	return nil
}
