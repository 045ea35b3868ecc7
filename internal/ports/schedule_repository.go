package ports

import (
	"context"
	"delivery-tracking-service/internal/domain"
)

// Port: a boundary for loading and updating the delivery schedule.
type ScheduleRepository interface {
	// Return all deliveries in visiting order.
	ListDeliveries(ctx context.Context) ([]domain.Delivery, error)
	// Persist the arrival state of one delivery.
	SaveDeliveryStatus(ctx context.Context, d domain.Delivery) error
	// Replace the stored schedule with deliveries; slice order is visiting order.
	// Deliveries absent from the new set are removed, arrival state of the rest is kept.
	UpsertDeliveries(ctx context.Context, deliveries []domain.Delivery) error
}
