package handlers

import (
	"delivery-tracking-service/internal/api/dto"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
)

type EventHandler struct {
	Tracker DeliveryTracker
}

// Create processes one delivery event synchronously.
// An unknown delivery id is not an error: the response reports matched=false.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.EventRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "id is required")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lon are required")
		return
	}
	at, err := domain.ParseTime(req.TimeOfDelivery)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "time_of_delivery must be RFC 3339 or YYYY-MM-DD HH:MM:SS")
		return
	}

	ev := domain.DeliveryEvent{
		ID:             id,
		TimeOfDelivery: at,
		Location:       domain.Location{Lat: *req.Lat, Lon: *req.Lon},
	}

	out, err := h.Tracker.Submit(r.Context(), ev)
	if err != nil && !out.Matched {
		log.Printf("req_id=%s process event failed: id=%s err=%v", obs.RequestID(r.Context()), id, err)
		writeError(w, r, http.StatusServiceUnavailable, "tracker unavailable")
		return
	}

	res := dto.EventResponse{
		Matched:             out.Matched,
		NotificationsSent:   out.NotificationsSent,
		NotificationsFailed: out.NotificationsFailed,
		SpeedModelUpdated:   out.SpeedModelUpdated,
	}
	if out.Matched {
		d := dto.NewDeliveryResponse(out.Delivery)
		res.Delivery = &d
	}
	if err != nil {
		log.Printf("req_id=%s process event estimator error: id=%s err=%v", obs.RequestID(r.Context()), id, err)
		res.EstimatorError = err.Error()
	}

	writeJSON(w, r, http.StatusOK, res)
}
