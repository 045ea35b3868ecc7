package handlers

import (
	"context"
	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/services"
	"log"
	"net/http"
)

// DeliveryTracker is the serialized view of the delivery controller used by handlers.
type DeliveryTracker interface {
	Submit(ctx context.Context, ev domain.DeliveryEvent) (services.Outcome, error)
	Snapshot(ctx context.Context) ([]domain.Delivery, error)
}

// DeliveryHandler exposes the current schedule state.
type DeliveryHandler struct {
	Tracker DeliveryTracker
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	deliveries, err := h.Tracker.Snapshot(r.Context())
	if err != nil {
		log.Printf("list deliveries failed: %v", err)
		writeError(w, r, http.StatusServiceUnavailable, "tracker unavailable")
		return
	}

	res := dto.ListDeliveriesResponse{
		Deliveries: make([]dto.DeliveryResponse, 0, len(deliveries)),
	}
	for _, d := range deliveries {
		res.Deliveries = append(res.Deliveries, dto.NewDeliveryResponse(d))
	}

	writeJSON(w, r, http.StatusOK, res)
}
