package distance

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"math"
)

// HaversineDistanceProvider measures straight-line (great-circle) distance.
// It never fails and reports no duration.
type HaversineDistanceProvider struct{}

func NewHaversineDistanceProvider() *HaversineDistanceProvider {
	return &HaversineDistanceProvider{}
}

func (HaversineDistanceProvider) GetDistance(
	ctx context.Context,
	origin domain.Location,
	destination domain.Location,
) (ports.DistanceResult, error) {
	km := origin.DistanceKm(destination)
	return ports.DistanceResult{DistanceMeters: int(math.Round(km * 1000))}, nil
}
