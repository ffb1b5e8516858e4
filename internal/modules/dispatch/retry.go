// README: Background retry of bookings that found no driver.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ridebook/internal/modules/booking"
	"ridebook/internal/types"
)

type AwaitingQueue interface {
	ListAwaiting(ctx context.Context, limit int) ([]Awaiting, error)
	ClearAwaiting(ctx context.Context, bookingID types.ID) error
}

type Redispatcher interface {
	Redispatch(ctx context.Context, bookingID types.ID) (*booking.Assignment, error)
}

type Retrier struct {
	queue    AwaitingQueue
	booking  Redispatcher
	interval time.Duration
	batch    int
	log      zerolog.Logger
}

func NewRetrier(queue AwaitingQueue, b Redispatcher, interval time.Duration, log zerolog.Logger) *Retrier {
	return &Retrier{queue: queue, booking: b, interval: interval, batch: 50, log: log}
}

// Run retries awaiting bookings every interval until ctx ends.
func (r *Retrier) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RetryOnce(ctx); err != nil {
				r.log.Warn().Err(err).Msg("awaiting retry pass failed")
			}
		}
	}
}

// RetryOnce makes one pass over the oldest awaiting bookings and returns how many got a driver.
func (r *Retrier) RetryOnce(ctx context.Context) (int, error) {
	items, err := r.queue.ListAwaiting(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	assigned := 0
	for _, it := range items {
		a, err := r.booking.Redispatch(ctx, it.BookingID)
		switch {
		case err == nil && !a.Awaiting:
			assigned++
		case err == nil:
		case errors.Is(err, booking.ErrActiveAssignment), errors.Is(err, booking.ErrBookingFinished), errors.Is(err, types.ErrNotFound):
			// resolved elsewhere
			if err := r.queue.ClearAwaiting(ctx, it.BookingID); err != nil {
				return assigned, err
			}
		default:
			r.log.Warn().Err(err).Str("booking_id", string(it.BookingID)).Msg("redispatch failed")
		}
	}
	return assigned, nil
}
