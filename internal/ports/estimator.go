package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"errors"
	"time"
)

// ErrSpeedModelNotPersisted marks an UpdateSpeedModel error where the in-memory
// model was updated but saving it failed.
var ErrSpeedModelNotPersisted = errors.New("speed model updated but not persisted")

// Estimator predicts travel time and learns from observed legs.
type Estimator interface {
	// ETA returns the expected travel time from origin to destination
	// under the current speed model.
	ETA(ctx context.Context, origin, destination domain.Location) (time.Duration, error)
	// UpdateSpeedModel folds an observed leg into the speed model.
	// Later ETA calls reflect the update. An error wrapping
	// ErrSpeedModelNotPersisted means the model did change.
	UpdateSpeedModel(ctx context.Context, from, to domain.Location, elapsed time.Duration) error
}

// SpeedModel is the persisted state of an average-speed estimator.
type SpeedModel struct {
	AverageSpeedKmh float64
	Samples         int
}

// Port: persistence for the estimator's speed model.
type SpeedModelStore interface {
	// Load returns ok=false when nothing has been stored yet.
	LoadSpeedModel(ctx context.Context) (model SpeedModel, ok bool, err error)
	SaveSpeedModel(ctx context.Context, model SpeedModel) error
}
