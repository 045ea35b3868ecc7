package dto

type EventRequest struct {
	ID             string   `json:"id"`
	TimeOfDelivery string   `json:"time_of_delivery"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
}

type EventResponse struct {
	Matched             bool              `json:"matched"`
	Delivery            *DeliveryResponse `json:"delivery,omitempty"`
	NotificationsSent   int               `json:"notifications_sent"`
	NotificationsFailed int               `json:"notifications_failed"`
	SpeedModelUpdated   bool              `json:"speed_model_updated"`
	EstimatorError      string            `json:"estimator_error,omitempty"`
}
