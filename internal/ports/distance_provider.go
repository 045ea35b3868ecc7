package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving travel distance between locations.
type DistanceProvider interface {
	// Return travel distance and, when known, duration between two locations.
	GetDistance(ctx context.Context, origin, destination domain.Location) (DistanceResult, error)
}
