package distance

import (
	"context"
	"delivery-tracking-service/internal/adapters/cache"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSDistanceProvider implements DistanceProvider and Geocoder using OpenRouteService.
//
// It coordinates:
//   - Persistent distance caching keyed by rounded coordinates
//   - Persistent geocode caching keyed by normalized address
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	session       *http.Client
	apiKey        string
	baseURL       string
	profile       string
	distanceCache *cache.SQLDistanceCache
	geocodeCache  *cache.SQLGeocodeCache
	retry         retryPolicy
}

type ORSOption func(*ORSDistanceProvider)

// WithORSBaseURL points the provider at another ORS deployment.
func WithORSBaseURL(u string) ORSOption {
	return func(o *ORSDistanceProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func NewORSDistanceProvider(
	apiKey string,
	distanceCache *cache.SQLDistanceCache,
	geocodeCache *cache.SQLGeocodeCache,
	opts ...ORSOption,
) (*ORSDistanceProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSDistanceProvider{
		session:       &http.Client{Timeout: 10 * time.Second},
		apiKey:        apiKey,
		baseURL:       defaultORSBaseURL,
		profile:       "driving-car",
		distanceCache: distanceCache,
		geocodeCache:  geocodeCache,
		retry:         defaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSDistanceProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GetDistance returns the road distance between two coordinates.
func (o *ORSDistanceProvider) GetDistance(
	ctx context.Context,
	origin domain.Location,
	destination domain.Location,
) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetDistance")(&err)

	originKey, destKey := origin.Key(), destination.Key()
	if originKey == destKey {
		return ports.DistanceResult{}, nil
	}

	// Check persistent distance cache before issuing external API calls.
	if o.distanceCache != nil {
		hit, ok, err := o.distanceCache.Get(ctx, originKey, destKey)
		if err != nil {
			return ports.DistanceResult{}, fmt.Errorf("ORS get distance cache: %w", err)
		}
		if ok {
			return hit, nil
		}
	}

	fetched, err := o.fetchMatrixRow(ctx, origin, []domain.Location{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("fetching matrix row %q -> %q: %w", originKey, destKey, err)
	}

	result := fetched[0]
	if o.distanceCache != nil {
		if err := o.distanceCache.Put(ctx, originKey, destKey, result); err != nil {
			log.Printf("distance cache write failed: %v", err)
		}
	}

	return result, nil
}

// Geocode resolves an address to coordinates, consulting the cache first.
func (o *ORSDistanceProvider) Geocode(ctx context.Context, address string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := o.normalize(address)
	if norm == "" {
		return domain.Location{}, errors.New("geocode: address must be non-empty")
	}

	if o.geocodeCache != nil {
		hit, ok, err := o.geocodeCache.Get(ctx, norm)
		if err != nil {
			return domain.Location{}, fmt.Errorf("ORS get geocode cache: %w", err)
		}
		if ok {
			return hit, nil
		}
	}

	loc, err := o.geocode(ctx, norm)
	if err != nil {
		return domain.Location{}, fmt.Errorf("retrieving coordinates: %w", err)
	}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.Put(ctx, norm, loc); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return loc, nil
}
