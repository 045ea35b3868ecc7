package services

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/ports"
	"errors"
	"log"
)

var ErrTrackerStopped = errors.New("tracker stopped")

type trackReply struct {
	outcome    Outcome
	deliveries []domain.Delivery
	err        error
}

type trackRequest struct {
	ctx   context.Context
	run   func(ctx context.Context) trackReply
	reply chan trackReply
}

// Tracker serializes access to a DeliveryController.
//
// A single goroutine (Run) owns the controller; HTTP handlers and event
// consumers hand their work to it, so one event is fully processed before
// the next one starts. Matched deliveries are persisted through the
// optional repository.
type Tracker struct {
	controller *DeliveryController
	repo       ports.ScheduleRepository
	requests   chan trackRequest
	done       chan struct{}
}

func NewTracker(controller *DeliveryController, repo ports.ScheduleRepository) *Tracker {
	return &Tracker{
		controller: controller,
		repo:       repo,
		requests:   make(chan trackRequest),
		done:       make(chan struct{}),
	}
}

// Run processes submitted work until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) error {
	defer close(t.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-t.requests:
			req.reply <- req.run(req.ctx)
		}
	}
}

// Submit processes one event and waits for its outcome.
// Once accepted, an event runs to completion even if ctx is canceled.
func (t *Tracker) Submit(ctx context.Context, ev domain.DeliveryEvent) (Outcome, error) {
	r, err := t.do(ctx, func(ctx context.Context) trackReply {
		out, err := t.controller.Process(ctx, ev)
		if out.Matched && t.repo != nil {
			if perr := t.repo.SaveDeliveryStatus(ctx, out.Delivery); perr != nil {
				log.Printf("persist delivery status failed: id=%s err=%v", out.Delivery.ID, perr)
			}
		}
		return trackReply{outcome: out, err: err}
	})
	if err != nil {
		return Outcome{}, err
	}
	return r.outcome, r.err
}

// Snapshot returns a copy of the schedule as seen by the tracker goroutine.
func (t *Tracker) Snapshot(ctx context.Context) ([]domain.Delivery, error) {
	r, err := t.do(ctx, func(context.Context) trackReply {
		return trackReply{deliveries: t.controller.Deliveries()}
	})
	if err != nil {
		return nil, err
	}
	return r.deliveries, nil
}

func (t *Tracker) do(ctx context.Context, run func(context.Context) trackReply) (trackReply, error) {
	req := trackRequest{
		ctx:   context.WithoutCancel(ctx),
		run:   run,
		reply: make(chan trackReply, 1),
	}

	select {
	case <-ctx.Done():
		return trackReply{}, ctx.Err()
	case <-t.done:
		return trackReply{}, ErrTrackerStopped
	case t.requests <- req:
	}

	select {
	case r := <-req.reply:
		return r, nil
	case <-t.done:
		// Run may have replied just before stopping.
		select {
		case r := <-req.reply:
			return r, nil
		default:
			return trackReply{}, ErrTrackerStopped
		}
	}
}
