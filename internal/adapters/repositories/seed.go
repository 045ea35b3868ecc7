package repositories

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DeliverySeed is one schedule entry in a seed file.
// Either lat/lon or address must be given; address is geocoded when coordinates are missing.
type DeliverySeed struct {
	DeliveryID   string   `json:"delivery_id" yaml:"delivery_id"`
	ContactEmail string   `json:"contact_email" yaml:"contact_email"`
	Lat          *float64 `json:"lat" yaml:"lat"`
	Lon          *float64 `json:"lon" yaml:"lon"`
	Address      string   `json:"address" yaml:"address"`
	ScheduledAt  string   `json:"scheduled_at" yaml:"scheduled_at"`
}

// LoadSeedFile reads a JSON or YAML (.yaml, .yml) schedule file. Entry order is visiting order.
func LoadSeedFile(path string) ([]DeliverySeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", path, err)
	}

	var data []DeliverySeed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("load seed: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("load seed: parse json: %w", err)
		}
	}

	return data, nil
}

// BuildDeliveries validates seeds and resolves their locations.
// geocoder may be nil when every seed carries coordinates.
func BuildDeliveries(ctx context.Context, seeds []DeliverySeed, geocoder ports.Geocoder) ([]domain.Delivery, error) {
	out := make([]domain.Delivery, 0, len(seeds))
	seen := make(map[string]struct{}, len(seeds))

	for i, s := range seeds {
		id := strings.TrimSpace(s.DeliveryID)
		if id == "" {
			return nil, fmt.Errorf("build deliveries: item at index %d: delivery_id cannot be empty", i+1)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("build deliveries: item at index %d: duplicate delivery_id %q", i+1, id)
		}
		seen[id] = struct{}{}

		email := strings.TrimSpace(s.ContactEmail)
		if email == "" {
			return nil, fmt.Errorf("build deliveries: delivery_id=%s: contact_email cannot be empty", id)
		}

		scheduledAt, err := domain.ParseTime(s.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("build deliveries: delivery_id=%s: %w", id, err)
		}

		var loc domain.Location
		switch {
		case s.Lat != nil && s.Lon != nil:
			loc = domain.Location{Lat: *s.Lat, Lon: *s.Lon}
		case strings.TrimSpace(s.Address) != "" && geocoder != nil:
			loc, err = geocoder.Geocode(ctx, s.Address)
			if err != nil {
				return nil, fmt.Errorf("build deliveries: delivery_id=%s: geocode: %w", id, err)
			}
		default:
			return nil, fmt.Errorf("build deliveries: delivery_id=%s: needs lat/lon or a geocodable address", id)
		}

		out = append(out, domain.Delivery{
			ID:           id,
			ContactEmail: email,
			Location:     loc,
			ScheduledAt:  scheduledAt,
		})
	}

	return out, nil
}

// SeedFromFile loads a seed file and upserts it into repo.
func SeedFromFile(ctx context.Context, repo ports.ScheduleRepository, path string, geocoder ports.Geocoder) (int, error) {
	seeds, err := LoadSeedFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed schedule: %w", err)
	}

	deliveries, err := BuildDeliveries(ctx, seeds, geocoder)
	if err != nil {
		return 0, fmt.Errorf("seed schedule: %w", err)
	}

	if err := repo.UpsertDeliveries(ctx, deliveries); err != nil {
		return 0, fmt.Errorf("seed schedule: %w", err)
	}

	return len(deliveries), nil
}
