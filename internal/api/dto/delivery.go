package dto

import (
	"delivery-tracking-service/internal/domain"
	"time"
)

type DeliveryResponse struct {
	DeliveryID   string     `json:"delivery_id"`
	ContactEmail string     `json:"contact_email"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	DeliveredAt  *time.Time `json:"delivered_at"`
	Arrived      bool       `json:"arrived"`
	OnTime       bool       `json:"on_time"`
}

type ListDeliveriesResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
}

func NewDeliveryResponse(d domain.Delivery) DeliveryResponse {
	return DeliveryResponse{
		DeliveryID:   d.ID,
		ContactEmail: d.ContactEmail,
		Lat:          d.Location.Lat,
		Lon:          d.Location.Lon,
		ScheduledAt:  d.ScheduledAt,
		DeliveredAt:  d.DeliveredAt,
		Arrived:      d.Arrived,
		OnTime:       d.OnTime,
	}
}
