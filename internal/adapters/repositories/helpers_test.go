package repositories

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
)

type stubGeocoder struct {
	loc domain.Location
	err error
}

func (g stubGeocoder) Geocode(ctx context.Context, address string) (domain.Location, error) {
	return g.loc, g.err
}

func portsModel(kmh float64, samples int) ports.SpeedModel {
	return ports.SpeedModel{AverageSpeedKmh: kmh, Samples: samples}
}
