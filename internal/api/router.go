package api

import (
	"delivery-tracking-service/internal/api/handlers"
	"net/http"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(tracker handlers.DeliveryTracker) http.Handler {
	mux := http.NewServeMux()

	deliveryHandler := &handlers.DeliveryHandler{Tracker: tracker}
	eventHandler := &handlers.EventHandler{Tracker: tracker}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/deliveries", deliveryHandler.List)
	mux.HandleFunc("/events", eventHandler.Create)

	return requestIDMiddleware(loggingMiddleware(mux))
}
