// README: Booking store backed by PostgreSQL; status changes are compare-and-swap updates.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ridebook/internal/infra"
	"ridebook/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateBooking inserts the arrival and the booking; callers run it inside a unit of work.
func (s *Store) CreateBooking(ctx context.Context, b *Booking) error {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO arrivals (id, type, pickup_id, dropoff_id, price)
		VALUES ($1, $2, $3, $4, $5)`,
		string(b.Arrival.ID), string(b.Arrival.Type), string(b.Arrival.PickupID),
		string(b.Arrival.DropoffID), b.Arrival.Price,
	); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, code, customer_id, arrival_id, count, price, currency,
			inviting_driver_id, created_at, start_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)`,
		string(b.ID), b.Code, string(b.CustomerID), string(b.Arrival.ID), b.Count,
		b.Price, b.Currency, string(b.InvitingDriverID), b.CreatedAt, b.StartAt,
	)
	return err
}

func (s *Store) GetBooking(ctx context.Context, id types.ID) (*Booking, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT b.id, b.code, b.customer_id, b.count, b.price, b.currency,
		       COALESCE(b.inviting_driver_id, ''), b.created_at, b.start_at, b.end_at, b.deleted_at,
		       a.id, a.type, a.pickup_id, a.dropoff_id, a.price
		FROM bookings b
		JOIN arrivals a ON a.id = b.arrival_id
		WHERE b.id = $1 AND b.deleted_at IS NULL`, string(id),
	)
	var b Booking
	var routeType string
	err := row.Scan(
		&b.ID, &b.Code, &b.CustomerID, &b.Count, &b.Price, &b.Currency,
		&b.InvitingDriverID, &b.CreatedAt, &b.StartAt, &b.EndAt, &b.DeletedAt,
		&b.Arrival.ID, &routeType, &b.Arrival.PickupID, &b.Arrival.DropoffID, &b.Arrival.Price,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Arrival.Type = RouteType(routeType)
	return &b, nil
}

func (s *Store) MarkBookingEnded(ctx context.Context, id types.ID, at time.Time) error {
	tag, err := infra.Conn(ctx, s.db).Exec(ctx,
		`UPDATE bookings SET end_at = $2 WHERE id = $1 AND end_at IS NULL`, string(id), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrBookingFinished
	}
	return nil
}

const detailColumns = `
	d.id, d.booking_id, d.taxi_id, t.driver_id, d.status,
	COALESCE(d.commission_rate, 0)::text, COALESCE(d.total_price, 0), d.version,
	d.created_at, d.claimed_at, d.picking_up_at, d.completed_at, d.cancelled_at`

func (s *Store) GetDetail(ctx context.Context, id types.ID) (*Detail, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT `+detailColumns+`
		FROM booking_details d
		JOIN taxis t ON t.id = d.taxi_id
		WHERE d.id = $1`, string(id))
	return scanDetail(row)
}

// LockDetail locks the detail row so concurrent transitions on it queue behind this transaction,
// then reads it. The read is a separate statement so it sees the winner's committed taxi.
func (s *Store) LockDetail(ctx context.Context, id types.ID) (*Detail, error) {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM booking_details WHERE id = $1 FOR UPDATE`, string(id)).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDetailNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetDetail(ctx, id)
}

func (s *Store) ListBookingDetails(ctx context.Context, bookingID types.ID) ([]Detail, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT `+detailColumns+`
		FROM booking_details d
		JOIN taxis t ON t.id = d.taxi_id
		WHERE d.booking_id = $1
		ORDER BY d.created_at`, string(bookingID))
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (s *Store) ListDetails(ctx context.Context, f ListFilter) ([]Detail, error) {
	var status *int16
	if f.Status != nil {
		v := int16(*f.Status)
		status = &v
	}
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT `+detailColumns+`
		FROM booking_details d
		JOIN taxis t ON t.id = d.taxi_id
		WHERE ($1::smallint IS NULL OR d.status = $1)
		ORDER BY d.created_at DESC
		LIMIT $2 OFFSET $3`, status, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// InsertDetail relies on the partial unique index booking_details_one_active:
// a second non-terminal detail for the same booking is rejected by Postgres.
func (s *Store) InsertDetail(ctx context.Context, d *Detail) error {
	_, err := infra.Conn(ctx, s.db).Exec(ctx, `
		INSERT INTO booking_details (id, booking_id, taxi_id, status, commission_rate, version, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, 0, $6)`,
		string(d.ID), string(d.BookingID), string(d.TaxiID), int16(d.Status),
		d.CommissionRate.String(), d.CreatedAt,
	)
	if infra.IsUniqueViolation(err) {
		return ErrActiveAssignment
	}
	return err
}

func (s *Store) TransitionDetail(ctx context.Context, t Transition) (bool, error) {
	var rate *string
	if t.CommissionRate != nil {
		v := t.CommissionRate.String()
		rate = &v
	}
	var taxi *string
	if !t.TaxiID.Empty() {
		v := string(t.TaxiID)
		taxi = &v
	}
	tag, err := infra.Conn(ctx, s.db).Exec(ctx, `
		UPDATE booking_details
		SET status = $1,
		    version = version + 1,
		    taxi_id = COALESCE($2, taxi_id),
		    commission_rate = COALESCE($3::numeric, commission_rate),
		    total_price = COALESCE($4, total_price),
		    claimed_at = CASE WHEN $1 = 2 THEN $5 ELSE claimed_at END,
		    picking_up_at = CASE WHEN $1 = 3 THEN $5 ELSE picking_up_at END,
		    completed_at = CASE WHEN $1 = 4 THEN $5 ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 5 THEN $5 ELSE cancelled_at END
		WHERE id = $6 AND status = $7`,
		int16(t.To), taxi, rate, t.TotalPrice, t.At, string(t.DetailID), int16(t.From),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ActiveSeatsOnTaxi sums seats held on taxiID by CLAIMED and PICKING_UP details other than exclude.
func (s *Store) ActiveSeatsOnTaxi(ctx context.Context, taxiID, exclude types.ID) (int, error) {
	var seats int
	err := infra.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT COALESCE(SUM(b.count), 0)
		FROM booking_details d
		JOIN bookings b ON b.id = d.booking_id
		WHERE d.taxi_id = $1 AND d.id <> $2 AND d.status IN (2, 3)`,
		string(taxiID), string(exclude),
	).Scan(&seats)
	return seats, err
}

func collectDetails(rows pgx.Rows) ([]Detail, error) {
	defer rows.Close()
	var out []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	var status int16
	var rate string
	err := row.Scan(
		&d.ID, &d.BookingID, &d.TaxiID, &d.DriverID, &status,
		&rate, &d.TotalPrice, &d.Version,
		&d.CreatedAt, &d.ClaimedAt, &d.PickingUpAt, &d.CompletedAt, &d.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDetailNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Status = Status(status)
	if d.CommissionRate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	return &d, nil
}
