package distance

import (
	"database/sql"
	"delivery-tracking-service/internal/adapters/cache"
	"delivery-tracking-service/internal/ports"
	"fmt"
)

const (
	ProviderHaversine = "haversine"
	ProviderORS       = "ors"
)

// NewProvider builds the named distance provider. The geocoder is nil for haversine,
// which cannot resolve addresses. ORS caches live in db; an empty baseURL keeps the public API.
func NewProvider(kind, apiKey, baseURL string, db *sql.DB) (ports.DistanceProvider, ports.Geocoder, error) {
	switch kind {
	case ProviderHaversine, "":
		return NewHaversineDistanceProvider(), nil, nil
	case ProviderORS:
		var opts []ORSOption
		if baseURL != "" {
			opts = append(opts, WithORSBaseURL(baseURL))
		}
		p, err := NewORSDistanceProvider(apiKey, cache.NewSQLDistanceCache(db), cache.NewSQLGeocodeCache(db), opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("new distance provider: %w", err)
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("new distance provider: unknown provider %q", kind)
	}
}
