package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
)

// Resolves free-form addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
}
