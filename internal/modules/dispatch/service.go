// README: Dispatch service; picks a driver for a booking and opens a REQUESTED detail.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ridebook/internal/infra"
	"ridebook/internal/metrics"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/notify"
	"ridebook/internal/modules/settings"
	"ridebook/internal/types"
)

type CandidateSource interface {
	Candidates(ctx context.Context, q Query) ([]Candidate, error)
}

type DetailWriter interface {
	InsertDetail(ctx context.Context, d *booking.Detail) error
}

type Settings interface {
	Percent(ctx context.Context, key string) (decimal.Decimal, error)
}

type Outbox interface {
	Append(ctx context.Context, events ...notify.Event) error
}

type MarkerStore interface {
	RecordDispatch(ctx context.Context, bookingID, driverID types.ID, at time.Time) error
	MarkAwaiting(ctx context.Context, bookingID types.ID, at time.Time) error
}

type Deps struct {
	UoW        infra.UnitOfWork
	Candidates CandidateSource
	Details    DetailWriter
	Settings   Settings
	Outbox     Outbox
	Markers    MarkerStore
	Sink       notify.Sink
	Metrics    metrics.Recorder
	Log        zerolog.Logger
	// Rand drives the tie-break; nil seeds from the clock.
	Rand *rand.Rand
}

type Service struct {
	uow        infra.UnitOfWork
	candidates CandidateSource
	details    DetailWriter
	settings   Settings
	outbox     Outbox
	markers    MarkerStore
	sink       notify.Sink
	metrics    metrics.Recorder
	log        zerolog.Logger
	now        func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewService(d Deps) *Service {
	s := &Service{
		uow:        d.UoW,
		candidates: d.Candidates,
		details:    d.Details,
		settings:   d.Settings,
		outbox:     d.Outbox,
		markers:    d.Markers,
		sink:       d.Sink,
		metrics:    d.Metrics,
		log:        d.Log,
		now:        time.Now,
		rnd:        d.Rand,
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.sink == nil {
		s.sink = notify.NopSink{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

// QueryFor builds the candidate query for b; the start date is taken in StartAt's location.
func QueryFor(b *booking.Booking) Query {
	y, m, d := b.StartAt.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, b.StartAt.Location())
	return Query{
		BookingID: b.ID,
		DayStart:  day,
		DayEnd:    day.AddDate(0, 0, 1),
		DropoffID: b.Arrival.DropoffID,
		RouteType: string(b.Arrival.Type),
		Exclude:   b.InvitingDriverID,
	}
}

// Assign picks a driver for b. Finding nobody is reported as Awaiting, not as an error.
// A failed attempt also leaves b in the awaiting set, unless b already has an active detail.
func (s *Service) Assign(ctx context.Context, b *booking.Booking) (_ *booking.Assignment, err error) {
	defer func() {
		if err != nil && !errors.Is(err, booking.ErrActiveAssignment) {
			s.markAwaiting(ctx, b.ID)
		}
	}()

	cands, err := s.candidates.Candidates(ctx, QueryFor(b))
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	eligible := cands[:0]
	for _, c := range cands {
		if c.DriverID != b.InvitingDriverID {
			eligible = append(eligible, c)
		}
	}

	tier, pool := SelectTier(eligible, b.Count)
	if tier == TierNone {
		s.metrics.Dispatch(TierNone)
		s.log.Info().Str("booking_id", string(b.ID)).Int("candidates", len(eligible)).Msg("no driver available")
		s.markAwaiting(ctx, b.ID)
		return &booking.Assignment{Awaiting: true}, nil
	}

	s.mu.Lock()
	chosen := Pick(s.rnd, pool)
	s.mu.Unlock()

	rate := decimal.Zero
	if chosen.CommissionRate != nil {
		rate = *chosen.CommissionRate
	} else if rate, err = s.settings.Percent(ctx, settings.KeyCommissionDefault); err != nil {
		return nil, err
	}

	detail := &booking.Detail{
		ID:             types.NewID(),
		BookingID:      b.ID,
		TaxiID:         chosen.TaxiID,
		DriverID:       chosen.DriverID,
		Status:         booking.StatusRequested,
		CommissionRate: rate,
		CreatedAt:      s.now(),
	}
	event := notify.NewEvent(notify.KindDispatched, notify.AudienceDriver, b.ID, detail.ID,
		fmt.Sprintf("new booking %s for %d passenger(s) on %s", b.Code, b.Count, b.StartAt.Format("2006-01-02")))
	event.DriverID = chosen.DriverID

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.details.InsertDetail(ctx, detail); err != nil {
			return err
		}
		return s.outbox.Append(ctx, event)
	}); err != nil {
		return nil, err
	}

	s.metrics.Dispatch(tier)
	s.log.Info().
		Str("booking_id", string(b.ID)).
		Str("detail_id", string(detail.ID)).
		Str("driver_id", string(chosen.DriverID)).
		Int("tier", tier).
		Int("pool", len(pool)).
		Msg("booking dispatched")
	if s.markers != nil {
		if err := s.markers.RecordDispatch(ctx, b.ID, chosen.DriverID, detail.CreatedAt); err != nil {
			s.log.Warn().Err(err).Str("booking_id", string(b.ID)).Msg("record dispatch failed")
		}
	}
	if err := s.sink.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("booking_id", string(b.ID)).Msg("notification publish failed")
	}

	return &booking.Assignment{
		Tier:     tier,
		DriverID: chosen.DriverID,
		TaxiID:   chosen.TaxiID,
		DetailID: detail.ID,
	}, nil
}

func (s *Service) markAwaiting(ctx context.Context, bookingID types.ID) {
	if s.markers == nil {
		return
	}
	if err := s.markers.MarkAwaiting(ctx, bookingID, s.now()); err != nil {
		s.log.Warn().Err(err).Str("booking_id", string(bookingID)).Msg("mark awaiting failed")
	}
}
