package services

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/ports"
	"errors"
	"fmt"
	"log"
	"time"
)

// OnTimeThreshold is the lateness below which a delivery counts as on time.
const OnTimeThreshold = 10 * time.Minute

// Outcome summarizes the side effects of processing one event.
// SpeedModelUpdated reports that the estimator's model changed, even if
// persisting it failed (the returned error then wraps ports.ErrSpeedModelNotPersisted).
type Outcome struct {
	Matched             bool
	Position            int
	Delivery            domain.Delivery
	NotificationsSent   int
	NotificationsFailed int
	SpeedModelUpdated   bool
}

type ControllerOption func(*DeliveryController)

// WithOnTimeThreshold replaces OnTimeThreshold for one controller.
func WithOnTimeThreshold(d time.Duration) ControllerOption {
	return func(c *DeliveryController) { c.onTimeThreshold = d }
}

// DeliveryController owns a schedule and reacts to delivery events.
//
// It is not safe for concurrent use: callers must serialize Process calls
// (see Tracker). Notifier and Estimator are shared collaborators.
type DeliveryController struct {
	schedule        *domain.Schedule
	notifier        ports.Notifier
	estimator       ports.Estimator
	onTimeThreshold time.Duration
}

func NewDeliveryController(
	deliveries []domain.Delivery,
	notifier ports.Notifier,
	estimator ports.Estimator,
	opts ...ControllerOption,
) (*DeliveryController, error) {
	if notifier == nil {
		return nil, errors.New("new delivery controller: notifier must be non-nil")
	}
	if estimator == nil {
		return nil, errors.New("new delivery controller: estimator must be non-nil")
	}

	c := &DeliveryController{
		schedule:        domain.NewSchedule(deliveries),
		notifier:        notifier,
		estimator:       estimator,
		onTimeThreshold: OnTimeThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}

	if dups := c.schedule.DuplicateIDs(); len(dups) > 0 {
		log.Printf("schedule has duplicate delivery ids=%v; only the first occurrence is updated", dups)
	}

	return c, nil
}

// Process applies one delivery event to the schedule.
//
// An event whose id is not scheduled is a no-op. On a match the delivery is
// marked arrived, judged for punctuality, the customer gets a feedback
// request, the next customer (if any) gets an ETA, and a late leg with a
// predecessor is fed to the speed model.
//
// Notification failures are logged and counted in the Outcome; they never
// stop the remaining steps. Estimator failures are joined into the returned
// error after all steps have run; schedule state is updated regardless.
func (c *DeliveryController) Process(ctx context.Context, ev domain.DeliveryEvent) (_ Outcome, err error) {
	defer obs.Time(ctx, "controller.Process")(&err)

	pos := c.schedule.IndexOf(ev.ID)
	if pos < 0 {
		return Outcome{Position: -1}, nil
	}

	out := Outcome{Matched: true, Position: pos}
	delivery := c.schedule.At(pos)

	delivery.MarkArrived(ev.TimeOfDelivery)
	if ev.TimeOfDelivery.Sub(delivery.ScheduledAt) < c.onTimeThreshold {
		delivery.OnTime = true
	}

	c.notify(ctx, &out, delivery.ContactEmail, FeedbackSubject, FeedbackBody(ev.TimeOfDelivery))

	var errs []error

	if next, ok := c.schedule.Next(pos); ok {
		eta, err := c.estimator.ETA(ctx, ev.Location, next.Location)
		if err != nil {
			errs = append(errs, fmt.Errorf("process %q: eta to next delivery %q: %w", ev.ID, next.ID, err))
		} else {
			c.notify(ctx, &out, next.ContactEmail, NextDeliverySubject, NextDeliveryBody(next.Location, eta))
		}
	}

	if !delivery.OnTime {
		if prev, ok := c.schedule.Previous(pos); ok {
			elapsed := delivery.TimeOfDelivery().Sub(prev.TimeOfDelivery())
			err := c.estimator.UpdateSpeedModel(ctx, prev.Location, delivery.Location, elapsed)
			if err != nil {
				errs = append(errs, fmt.Errorf("process %q: update speed model from %q: %w", ev.ID, prev.ID, err))
			}
			out.SpeedModelUpdated = err == nil || errors.Is(err, ports.ErrSpeedModelNotPersisted)
		}
	}

	out.Delivery = c.snapshotAt(pos)
	return out, errors.Join(errs...)
}

// Deliveries returns a copy of the schedule in visiting order.
func (c *DeliveryController) Deliveries() []domain.Delivery {
	return c.schedule.Deliveries()
}

func (c *DeliveryController) notify(ctx context.Context, out *Outcome, recipient, subject, body string) {
	if err := c.notifier.Send(ctx, recipient, subject, body); err != nil {
		out.NotificationsFailed++
		log.Printf("notification failed: recipient=%s subject=%q err=%v", recipient, subject, err)
		return
	}
	out.NotificationsSent++
}

func (c *DeliveryController) snapshotAt(pos int) domain.Delivery {
	d := *c.schedule.At(pos)
	if d.DeliveredAt != nil {
		t := *d.DeliveredAt
		d.DeliveredAt = &t
	}
	return d
}
