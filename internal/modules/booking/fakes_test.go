// README: In-memory collaborators for booking tests; the unit of work serializes and rolls back.
package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/modules/driver"
	"ridebook/internal/modules/ledger"
	"ridebook/internal/modules/notify"
	"ridebook/internal/types"
)

// world plays the database. WithinTx holds mu for the whole transaction, which
// gives the same serialization the row locks give in Postgres.
type world struct {
	mu       sync.Mutex
	bookings map[types.ID]Booking
	details  map[types.ID]Detail
	drivers  map[types.ID]driver.Driver
	taxis    map[types.ID]driver.Taxi
	wallet   []ledger.WalletEntry
	revenue  []ledger.RevenueEntry
	outbox   []notify.Event

	revenueErr error
}

func newWorld() *world {
	return &world{
		bookings: map[types.ID]Booking{},
		details:  map[types.ID]Detail{},
		drivers:  map[types.ID]driver.Driver{},
		taxis:    map[types.ID]driver.Taxi{},
	}
}

type snapshot struct {
	bookings map[types.ID]Booking
	details  map[types.ID]Detail
	drivers  map[types.ID]driver.Driver
	wallet   []ledger.WalletEntry
	revenue  []ledger.RevenueEntry
	outbox   []notify.Event
}

func (w *world) snapshot() snapshot {
	s := snapshot{
		bookings: make(map[types.ID]Booking, len(w.bookings)),
		details:  make(map[types.ID]Detail, len(w.details)),
		drivers:  make(map[types.ID]driver.Driver, len(w.drivers)),
		wallet:   append([]ledger.WalletEntry(nil), w.wallet...),
		revenue:  append([]ledger.RevenueEntry(nil), w.revenue...),
		outbox:   append([]notify.Event(nil), w.outbox...),
	}
	for k, v := range w.bookings {
		s.bookings[k] = v
	}
	for k, v := range w.details {
		s.details[k] = v
	}
	for k, v := range w.drivers {
		s.drivers[k] = v
	}
	return s
}

func (w *world) restore(s snapshot) {
	w.bookings, w.details, w.drivers = s.bookings, s.details, s.drivers
	w.wallet, w.revenue, w.outbox = s.wallet, s.revenue, s.outbox
}

func (w *world) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.snapshot()
	if err := fn(ctx); err != nil {
		w.restore(snap)
		return err
	}
	return nil
}

// booking.Repository

func (w *world) CreateBooking(_ context.Context, b *Booking) error {
	w.bookings[b.ID] = *b
	return nil
}

func (w *world) GetBooking(_ context.Context, id types.ID) (*Booking, error) {
	b, ok := w.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (w *world) MarkBookingEnded(_ context.Context, id types.ID, at time.Time) error {
	b, ok := w.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.EndAt != nil {
		return ErrBookingFinished
	}
	b.EndAt = &at
	w.bookings[id] = b
	return nil
}

func (w *world) GetDetail(_ context.Context, id types.ID) (*Detail, error) {
	d, ok := w.details[id]
	if !ok {
		return nil, ErrDetailNotFound
	}
	d.DriverID = w.taxis[d.TaxiID].DriverID
	return &d, nil
}

func (w *world) LockDetail(ctx context.Context, id types.ID) (*Detail, error) {
	return w.GetDetail(ctx, id)
}

func (w *world) ListBookingDetails(_ context.Context, bookingID types.ID) ([]Detail, error) {
	var out []Detail
	for _, d := range w.details {
		if d.BookingID == bookingID {
			d.DriverID = w.taxis[d.TaxiID].DriverID
			out = append(out, d)
		}
	}
	return out, nil
}

func (w *world) ListDetails(_ context.Context, f ListFilter) ([]Detail, error) {
	var out []Detail
	for _, d := range w.details {
		if f.Status == nil || d.Status == *f.Status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (w *world) TransitionDetail(_ context.Context, t Transition) (bool, error) {
	d, ok := w.details[t.DetailID]
	if !ok || d.Status != t.From {
		return false, nil
	}
	d.Status = t.To
	d.Version++
	if !t.TaxiID.Empty() {
		d.TaxiID = t.TaxiID
	}
	if t.CommissionRate != nil {
		// commission_rate is NUMERIC(5, 2)
		d.CommissionRate = t.CommissionRate.Round(2)
	}
	if t.TotalPrice != nil {
		d.TotalPrice = *t.TotalPrice
	}
	at := t.At
	switch t.To {
	case StatusClaimed:
		d.ClaimedAt = &at
	case StatusPickingUp:
		d.PickingUpAt = &at
	case StatusCompleted:
		d.CompletedAt = &at
	case StatusCancelled:
		d.CancelledAt = &at
	}
	w.details[d.ID] = d
	return true, nil
}

func (w *world) ActiveSeatsOnTaxi(_ context.Context, taxiID, exclude types.ID) (int, error) {
	seats := 0
	for _, d := range w.details {
		if d.TaxiID != taxiID || d.ID == exclude {
			continue
		}
		if d.Status == StatusClaimed || d.Status == StatusPickingUp {
			seats += w.bookings[d.BookingID].Count
		}
	}
	return seats, nil
}

// Drivers

func (w *world) GetDriver(_ context.Context, id types.ID) (*driver.Driver, error) {
	d, ok := w.drivers[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return &d, nil
}

func (w *world) LockDriver(ctx context.Context, id types.ID) (*driver.Driver, error) {
	return w.GetDriver(ctx, id)
}

func (w *world) InUseTaxi(_ context.Context, driverID types.ID) (*driver.Taxi, error) {
	for _, t := range w.taxis {
		if t.DriverID == driverID && t.InUse {
			return &t, nil
		}
	}
	return nil, driver.ErrNoTaxi
}

// ledger.Repository

func (w *world) AdjustBalance(_ context.Context, id types.ID, delta int64) (int64, error) {
	d, ok := w.drivers[id]
	if !ok {
		return 0, ledger.ErrDriverNotFound
	}
	if d.Balance+delta < 0 {
		return 0, ledger.ErrInsufficientBalance
	}
	d.Balance += delta
	w.drivers[id] = d
	return d.Balance, nil
}

func (w *world) InsertWalletEntry(_ context.Context, e *ledger.WalletEntry) error {
	w.wallet = append(w.wallet, *e)
	return nil
}

func (w *world) InsertRevenueEntry(_ context.Context, e *ledger.RevenueEntry) error {
	if w.revenueErr != nil {
		return w.revenueErr
	}
	w.revenue = append(w.revenue, *e)
	return nil
}

func (w *world) ListWalletEntries(_ context.Context, id types.ID, limit int) ([]ledger.WalletEntry, error) {
	var out []ledger.WalletEntry
	for _, e := range w.wallet {
		if e.DriverID == id && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// Outbox

func (w *world) Append(_ context.Context, events ...notify.Event) error {
	w.outbox = append(w.outbox, events...)
	return nil
}

// seeding helpers

func (w *world) addDriver(id types.ID, balance int64, seats int) {
	w.drivers[id] = driver.Driver{ID: id, Name: string(id), Active: true, Balance: balance}
	taxi := types.ID("taxi-" + string(id))
	w.taxis[taxi] = driver.Taxi{ID: taxi, DriverID: id, Plate: "B " + string(id), Seats: seats, InUse: true}
}

func (w *world) addBooking(id types.ID, price int64, count int, start time.Time, inviter types.ID) {
	w.bookings[id] = Booking{
		ID:               id,
		Code:             "BK" + string(id),
		CustomerID:       "cust-1",
		Arrival:          Arrival{ID: "arr-" + id, Type: RouteProvince, PickupID: "loc-a", DropoffID: "loc-b", Price: price},
		Count:            count,
		Price:            price,
		Currency:         types.DefaultCurrency,
		InvitingDriverID: inviter,
		StartAt:          start,
	}
}

// addDetail places a detail in the given status on the driver's taxi.
func (w *world) addDetail(id, bookingID, driverID types.ID, status Status, rate int64) {
	b := w.bookings[bookingID]
	r := decimal.NewFromInt(rate)
	w.details[id] = Detail{
		ID:             id,
		BookingID:      bookingID,
		TaxiID:         types.ID("taxi-" + string(driverID)),
		Status:         status,
		CommissionRate: r,
		TotalPrice:     b.Price - ledger.Deduction(b.Price, r),
	}
}

func (w *world) balance(id types.ID) int64 {
	return w.drivers[id].Balance
}

type fakeSettings map[string]string

func (f fakeSettings) Percent(_ context.Context, key string) (decimal.Decimal, error) {
	v, ok := f[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", types.ErrConfigMissing, key)
	}
	return decimal.RequireFromString(v), nil
}

func (f fakeSettings) ID(_ context.Context, key string) (types.ID, error) {
	v, ok := f[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrConfigMissing, key)
	}
	return types.ID(v), nil
}

type fixedPricer struct{ price int64 }

func (p fixedPricer) Quote(context.Context, Arrival) (types.Money, error) {
	return types.Money{Amount: p.price, Currency: types.DefaultCurrency}, nil
}

type stubDispatcher struct {
	calls []types.ID
	out   *Assignment
	err   error
}

func (d *stubDispatcher) Assign(_ context.Context, b *Booking) (*Assignment, error) {
	d.calls = append(d.calls, b.ID)
	if d.err != nil {
		return nil, d.err
	}
	if d.out == nil {
		return &Assignment{Awaiting: true}, nil
	}
	return d.out, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Publish(_ context.Context, events ...notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func defaultSettings() fakeSettings {
	return fakeSettings{
		"commission_default": "30",
		"royalty_default":    "50",
		"refund_3_day":       "100",
		"refund_1_day":       "50",
		"refund_overdue":     "0",
		"default_pickup":     "loc-airport",
		"default_dropoff":    "loc-city",
	}
}
