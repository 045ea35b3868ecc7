package services

import (
	"delivery-tracking-service/internal/domain"
	"fmt"
	"math"
	"time"
)

const (
	FeedbackSubject     = "Your feedback is important to us"
	NextDeliverySubject = "Your delivery will arrive soon"
)

// FeedbackBody asks the customer to rate the delivery completed at deliveredAt.
func FeedbackBody(deliveredAt time.Time) string {
	return fmt.Sprintf(
		"Regarding your delivery today at %s. "+
			"How likely would you be to recommend this delivery service to a friend? "+
			"Click <a href='url'>here</a>",
		deliveredAt.Format(domain.TimeLayout),
	)
}

// NextDeliveryBody announces the next delivery with its ETA in whole minutes.
func NextDeliveryBody(destination domain.Location, eta time.Duration) string {
	return fmt.Sprintf(
		"Your delivery to %s is next, estimated time of arrival is in %d minutes. Be ready!",
		destination, etaMinutes(eta),
	)
}

func etaMinutes(eta time.Duration) int64 {
	return int64(math.Round(eta.Minutes()))
}
