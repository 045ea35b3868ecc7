package domain

import (
	"errors"
	"time"
)

var ErrUnknownDelivery = errors.New("unknown delivery")

// Represents one planned drop-off in a schedule.
// Arrived and OnTime stay false until a matching DeliveryEvent is processed.
// Once Arrived is set it is never cleared.
type Delivery struct {
	ID           string
	ContactEmail string
	Location     Location
	ScheduledAt  time.Time
	DeliveredAt  *time.Time
	Arrived      bool
	OnTime       bool
}

// TimeOfDelivery is the observed delivery time when known, otherwise the scheduled one.
func (d *Delivery) TimeOfDelivery() time.Time {
	if d.DeliveredAt != nil {
		return *d.DeliveredAt
	}
	return d.ScheduledAt
}

// MarkArrived records an observed delivery. It never reverts a previous arrival.
func (d *Delivery) MarkArrived(at time.Time) {
	d.Arrived = true
	t := at
	d.DeliveredAt = &t
}

// DeliveryEvent reports that a delivery was completed at a time and place.
// Events are consumed once and never stored by the controller.
type DeliveryEvent struct {
	ID             string
	TimeOfDelivery time.Time
	Location       Location
}
