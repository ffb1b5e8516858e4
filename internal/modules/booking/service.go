// README: Booking service; creation, dispatch hand-off and the detail lifecycle with its settlement.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ridebook/internal/infra"
	"ridebook/internal/metrics"
	"ridebook/internal/modules/driver"
	"ridebook/internal/modules/ledger"
	"ridebook/internal/modules/notify"
	"ridebook/internal/modules/settings"
	"ridebook/internal/types"
)

type Repository interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id types.ID) (*Booking, error)
	MarkBookingEnded(ctx context.Context, id types.ID, at time.Time) error
	GetDetail(ctx context.Context, id types.ID) (*Detail, error)
	LockDetail(ctx context.Context, id types.ID) (*Detail, error)
	ListBookingDetails(ctx context.Context, bookingID types.ID) ([]Detail, error)
	ListDetails(ctx context.Context, f ListFilter) ([]Detail, error)
	TransitionDetail(ctx context.Context, t Transition) (bool, error)
	ActiveSeatsOnTaxi(ctx context.Context, taxiID, exclude types.ID) (int, error)
}

type Drivers interface {
	GetDriver(ctx context.Context, id types.ID) (*driver.Driver, error)
	LockDriver(ctx context.Context, id types.ID) (*driver.Driver, error)
	InUseTaxi(ctx context.Context, driverID types.ID) (*driver.Taxi, error)
}

type Ledger interface {
	Post(ctx context.Context, p ledger.Posting) (*ledger.Result, error)
}

type Settings interface {
	Percent(ctx context.Context, key string) (decimal.Decimal, error)
	ID(ctx context.Context, key string) (types.ID, error)
}

type Pricer interface {
	Quote(ctx context.Context, a Arrival) (types.Money, error)
}

type Dispatcher interface {
	Assign(ctx context.Context, b *Booking) (*Assignment, error)
}

type Outbox interface {
	Append(ctx context.Context, events ...notify.Event) error
}

type Deps struct {
	UoW        infra.UnitOfWork
	Repo       Repository
	Drivers    Drivers
	Ledger     Ledger
	Settings   Settings
	Pricer     Pricer
	Dispatcher Dispatcher
	Outbox     Outbox
	Sink       notify.Sink
	Metrics    metrics.Recorder
	Log        zerolog.Logger
}

type Service struct {
	uow        infra.UnitOfWork
	repo       Repository
	drivers    Drivers
	ledger     Ledger
	settings   Settings
	pricer     Pricer
	dispatcher Dispatcher
	outbox     Outbox
	sink       notify.Sink
	metrics    metrics.Recorder
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		uow:        d.UoW,
		repo:       d.Repo,
		drivers:    d.Drivers,
		ledger:     d.Ledger,
		settings:   d.Settings,
		pricer:     d.Pricer,
		dispatcher: d.Dispatcher,
		outbox:     d.Outbox,
		sink:       d.Sink,
		metrics:    d.Metrics,
		log:        d.Log,
		now:        time.Now,
	}
	if s.sink == nil {
		s.sink = notify.NopSink{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

type CreateCommand struct {
	CustomerID       types.ID
	RouteType        RouteType
	PickupID         types.ID
	DropoffID        types.ID
	Count            int
	StartAt          time.Time
	InvitingDriverID types.ID
}

type Created struct {
	Booking    *Booking
	Assignment *Assignment
}

// TransitionCommand names a booking detail and the driver acting on it.
type TransitionCommand struct {
	DetailID types.ID
	DriverID types.ID
}

type (
	ClaimCommand    TransitionCommand
	AdvanceCommand  TransitionCommand
	CompleteCommand TransitionCommand
	CancelCommand   TransitionCommand
)

// Result reports the new status and the balance change applied to the acting driver.
type Result struct {
	DetailID  types.ID
	BookingID types.ID
	Status    Status
	Delta     int64
	// Royalty is the amount paid to the inviting driver on completion.
	Royalty int64
}

type BookingView struct {
	Booking *Booking
	Details []Detail
	State   State
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Created, error) {
	if cmd.CustomerID.Empty() || !cmd.RouteType.Valid() || cmd.Count <= 0 || cmd.StartAt.IsZero() {
		return nil, ErrBadRequest
	}

	arrival := Arrival{
		ID:        types.NewID(),
		Type:      cmd.RouteType,
		PickupID:  cmd.PickupID,
		DropoffID: cmd.DropoffID,
	}
	var err error
	if arrival.PickupID.Empty() {
		if arrival.PickupID, err = s.settings.ID(ctx, settings.KeyDefaultPickup); err != nil {
			return nil, err
		}
	}
	if arrival.DropoffID.Empty() {
		if arrival.DropoffID, err = s.settings.ID(ctx, settings.KeyDefaultDropoff); err != nil {
			return nil, err
		}
	}
	if arrival.PickupID == arrival.DropoffID {
		return nil, fmt.Errorf("%w: pick-up and drop-off are the same", ErrBadRequest)
	}
	if !cmd.InvitingDriverID.Empty() {
		if _, err := s.drivers.GetDriver(ctx, cmd.InvitingDriverID); err != nil {
			return nil, err
		}
	}

	price, err := s.pricer.Quote(ctx, arrival)
	if err != nil {
		return nil, err
	}
	arrival.Price = price.Amount

	b := &Booking{
		ID:               types.NewID(),
		Code:             newCode(),
		CustomerID:       cmd.CustomerID,
		Arrival:          arrival,
		Count:            cmd.Count,
		Price:            price.Amount,
		Currency:         price.Currency,
		InvitingDriverID: cmd.InvitingDriverID,
		CreatedAt:        s.now(),
		StartAt:          cmd.StartAt,
	}
	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.CreateBooking(ctx, b)
	}); err != nil {
		return nil, err
	}
	s.log.Info().Str("booking_id", string(b.ID)).Str("code", b.Code).Int64("price", b.Price).Msg("booking created")

	// the booking is committed; a failed dispatch leaves it awaiting a driver
	a, err := s.dispatcher.Assign(ctx, b)
	if err != nil {
		s.log.Error().Err(err).Str("booking_id", string(b.ID)).Msg("dispatch after create failed")
		a = &Assignment{Awaiting: true}
	}
	return &Created{Booking: b, Assignment: a}, nil
}

// Redispatch retries dispatch for a booking that is awaiting a driver.
func (s *Service) Redispatch(ctx context.Context, bookingID types.ID) (*Assignment, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.EndAt != nil {
		return nil, ErrBookingFinished
	}
	details, err := s.repo.ListBookingDetails(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.Status.Active() {
			return nil, ErrActiveAssignment
		}
	}
	return s.dispatcher.Assign(ctx, b)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*BookingView, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.repo.ListBookingDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: b, Details: details, State: DeriveState(details)}, nil
}

func (s *Service) GetDetail(ctx context.Context, id types.ID) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) ListDetails(ctx context.Context, f ListFilter) ([]Detail, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListDetails(ctx, f)
}

// Claim moves REQUESTED to CLAIMED for the acting driver and withholds the commission.
func (s *Service) Claim(ctx context.Context, cmd ClaimCommand) (*Result, error) {
	if cmd.DetailID.Empty() || cmd.DriverID.Empty() {
		return nil, ErrBadRequest
	}
	var res Result
	var events []notify.Event
	var postings []ledger.Posting

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		events, postings = nil, nil

		d, err := s.repo.LockDetail(ctx, cmd.DetailID)
		if err != nil {
			return err
		}
		if !CanTransition(d.Status, StatusClaimed) {
			return ErrInvalidState
		}
		b, err := s.repo.GetBooking(ctx, d.BookingID)
		if err != nil {
			return err
		}
		if b.InvitingDriverID == cmd.DriverID {
			return ErrSelfClaim
		}

		drv, err := s.drivers.LockDriver(ctx, cmd.DriverID)
		if err != nil {
			return err
		}
		if drv.Banned() {
			return driver.ErrBanned
		}
		taxi, err := s.drivers.InUseTaxi(ctx, drv.ID)
		if err != nil {
			return err
		}
		held, err := s.repo.ActiveSeatsOnTaxi(ctx, taxi.ID, d.ID)
		if err != nil {
			return err
		}
		if held+b.Count > taxi.Seats {
			return ErrCapacityExceeded
		}

		rate, err := s.commissionRate(ctx, drv)
		if err != nil {
			return err
		}
		deduction := ledger.Deduction(b.Price, rate)
		if drv.Balance < deduction {
			return ledger.ErrInsufficientBalance
		}
		total := b.Price - deduction

		ok, err := s.repo.TransitionDetail(ctx, Transition{
			DetailID:       d.ID,
			From:           StatusRequested,
			To:             StatusClaimed,
			At:             s.now(),
			TaxiID:         taxi.ID,
			CommissionRate: &rate,
			TotalPrice:     &total,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}

		if deduction > 0 {
			p := ledger.Posting{
				DriverID: drv.ID,
				DetailID: d.ID,
				Kind:     ledger.KindCommission,
				Amount:   -deduction,
				Note:     fmt.Sprintf("commission %s%% on booking %s", rate, b.Code),
			}
			if _, err := s.ledger.Post(ctx, p); err != nil {
				return err
			}
			postings = append(postings, p)
		}

		e := notify.NewEvent(notify.KindClaimed, notify.AudienceAdmin, b.ID, d.ID,
			fmt.Sprintf("driver %s claimed booking %s, commission %d", drv.ID, b.Code, deduction))
		e.DriverID = drv.ID
		e.Amount = deduction
		events = append(events, e)
		if err := s.outbox.Append(ctx, events...); err != nil {
			return err
		}

		res = Result{DetailID: d.ID, BookingID: b.ID, Status: StatusClaimed, Delta: -deduction}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, res, postings, events)
	return &res, nil
}

// Advance moves CLAIMED to PICKING_UP; it has no monetary effect.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) (*Result, error) {
	if cmd.DetailID.Empty() || cmd.DriverID.Empty() {
		return nil, ErrBadRequest
	}
	var res Result
	var events []notify.Event

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		events = nil
		d, err := s.lockForTransition(ctx, TransitionCommand(cmd), StatusPickingUp)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, d, StatusPickingUp); err != nil {
			return err
		}
		e := notify.NewEvent(notify.KindPickingUp, notify.AudienceAdmin, d.BookingID, d.ID,
			fmt.Sprintf("driver %s is picking up", d.DriverID))
		e.DriverID = d.DriverID
		events = append(events, e)
		if err := s.outbox.Append(ctx, events...); err != nil {
			return err
		}
		res = Result{DetailID: d.ID, BookingID: d.BookingID, Status: StatusPickingUp}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, res, nil, events)
	return &res, nil
}

// Complete moves PICKING_UP to COMPLETED, closes the booking and pays any referral royalty.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Result, error) {
	if cmd.DetailID.Empty() || cmd.DriverID.Empty() {
		return nil, ErrBadRequest
	}
	var res Result
	var events []notify.Event
	var postings []ledger.Posting

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		events, postings = nil, nil
		d, err := s.lockForTransition(ctx, TransitionCommand(cmd), StatusCompleted)
		if err != nil {
			return err
		}
		b, err := s.repo.GetBooking(ctx, d.BookingID)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, d, StatusCompleted); err != nil {
			return err
		}
		if err := s.repo.MarkBookingEnded(ctx, b.ID, s.now()); err != nil {
			return err
		}

		res = Result{DetailID: d.ID, BookingID: b.ID, Status: StatusCompleted}
		done := notify.NewEvent(notify.KindCompleted, notify.AudienceAdmin, b.ID, d.ID,
			fmt.Sprintf("booking %s completed by driver %s", b.Code, d.DriverID))
		done.DriverID = d.DriverID
		events = append(events, done)

		if b.HasReferral() {
			royaltyRate, err := s.settings.Percent(ctx, settings.KeyRoyaltyDefault)
			if err != nil {
				return err
			}
			deduction := d.Withheld(b.Price)
			royalty := ledger.Royalty(deduction, royaltyRate)
			if royalty > 0 {
				p := ledger.Posting{
					DriverID: b.InvitingDriverID,
					DetailID: d.ID,
					Kind:     ledger.KindRoyalty,
					Amount:   royalty,
					Note:     fmt.Sprintf("royalty %s%% of %d on booking %s", royaltyRate, deduction, b.Code),
				}
				if _, err := s.ledger.Post(ctx, p); err != nil {
					return err
				}
				postings = append(postings, p)
			}
			e := notify.NewEvent(notify.KindRoyalty, notify.AudienceAdmin, b.ID, d.ID,
				fmt.Sprintf("royalty %d paid to inviting driver %s for booking %s", royalty, b.InvitingDriverID, b.Code))
			e.DriverID = b.InvitingDriverID
			e.Amount = royalty
			events = append(events, e)
			res.Royalty = royalty
		}
		return s.outbox.Append(ctx, events...)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, res, postings, events)
	return &res, nil
}

// Cancel moves REQUESTED or CLAIMED to CANCELLED. Cancelling a claim refunds part of the
// commission according to how many days remain before the booking starts.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Result, error) {
	if cmd.DetailID.Empty() || cmd.DriverID.Empty() {
		return nil, ErrBadRequest
	}
	var res Result
	var events []notify.Event
	var postings []ledger.Posting

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		events, postings = nil, nil
		d, err := s.lockForTransition(ctx, TransitionCommand(cmd), StatusCancelled)
		if err != nil {
			return err
		}
		b, err := s.repo.GetBooking(ctx, d.BookingID)
		if err != nil {
			return err
		}
		from := d.Status
		if err := s.transition(ctx, d, StatusCancelled); err != nil {
			return err
		}
		res = Result{DetailID: d.ID, BookingID: b.ID, Status: StatusCancelled}

		e := notify.NewEvent(notify.KindCancelled, notify.AudienceAdmin, b.ID, d.ID,
			fmt.Sprintf("driver %s cancelled booking %s from %s", d.DriverID, b.Code, from))
		e.DriverID = d.DriverID
		events = append(events, e)

		if from == StatusClaimed {
			deduction := d.Withheld(b.Price)
			refund := int64(0)
			if deduction > 0 {
				schedule, err := s.refundSchedule(ctx)
				if err != nil {
					return err
				}
				days := ledger.DaysUntil(s.now(), b.StartAt)
				refund = ledger.Refund(deduction, schedule.Percent(days))
			}
			if refund > 0 {
				p := ledger.Posting{
					DriverID: d.DriverID,
					DetailID: d.ID,
					Kind:     ledger.KindRefund,
					Amount:   refund,
					Note:     fmt.Sprintf("refund of %d commission on booking %s", deduction, b.Code),
				}
				if _, err := s.ledger.Post(ctx, p); err != nil {
					return err
				}
				postings = append(postings, p)
				r := notify.NewEvent(notify.KindRefunded, notify.AudienceAdmin, b.ID, d.ID,
					fmt.Sprintf("refunded %d to driver %s", refund, d.DriverID))
				r.DriverID = d.DriverID
				r.Amount = refund
				events = append(events, r)
			}
			res.Delta = refund
		}
		return s.outbox.Append(ctx, events...)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, res, postings, events)
	return &res, nil
}

// lockForTransition locks the detail and checks the target is reachable by the assigned driver.
func (s *Service) lockForTransition(ctx context.Context, cmd TransitionCommand, to Status) (*Detail, error) {
	d, err := s.repo.LockDetail(ctx, cmd.DetailID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(d.Status, to) {
		return nil, ErrInvalidState
	}
	if d.DriverID != cmd.DriverID {
		return nil, ErrNotAssigned
	}
	return d, nil
}

func (s *Service) transition(ctx context.Context, d *Detail, to Status) error {
	ok, err := s.repo.TransitionDetail(ctx, Transition{DetailID: d.ID, From: d.Status, To: to, At: s.now()})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) commissionRate(ctx context.Context, d *driver.Driver) (decimal.Decimal, error) {
	if d.CommissionRate != nil {
		return *d.CommissionRate, nil
	}
	return s.settings.Percent(ctx, settings.KeyCommissionDefault)
}

func (s *Service) refundSchedule(ctx context.Context) (ledger.RefundSchedule, error) {
	var sch ledger.RefundSchedule
	var err error
	if sch.ThreeDays, err = s.settings.Percent(ctx, settings.KeyRefund3Day); err != nil {
		return sch, err
	}
	if sch.OneDay, err = s.settings.Percent(ctx, settings.KeyRefund1Day); err != nil {
		return sch, err
	}
	if sch.Overdue, err = s.settings.Percent(ctx, settings.KeyRefundOverdue); err != nil {
		return sch, err
	}
	return sch, nil
}

// committed runs after a successful commit: metrics, logs and best-effort delivery.
func (s *Service) committed(ctx context.Context, res Result, postings []ledger.Posting, events []notify.Event) {
	s.metrics.Transition(res.Status.String())
	for _, p := range postings {
		s.metrics.Posting(string(p.Kind), p.Amount)
	}
	s.log.Info().
		Str("booking_id", string(res.BookingID)).
		Str("detail_id", string(res.DetailID)).
		Str("status", res.Status.String()).
		Int64("delta", res.Delta).
		Int64("royalty", res.Royalty).
		Msg("booking detail transitioned")
	if err := s.sink.Publish(ctx, events...); err != nil {
		s.log.Warn().Err(err).Str("detail_id", string(res.DetailID)).Msg("notification publish failed")
	}
}

func newCode() string {
	return "BK" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
