// README: Driver store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"

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

const driverColumns = `id, name, is_active, balance, commission_rate::text, created_at, deleted_at`

func (s *Store) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	row := infra.Conn(ctx, s.db).QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	return scanDriver(row)
}

// LockDriver reads the driver row FOR UPDATE; balance and seat checks for that driver
// serialize behind it until the transaction ends.
func (s *Store) LockDriver(ctx context.Context, id types.ID) (*Driver, error) {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1 FOR UPDATE`, string(id))
	return scanDriver(row)
}

func (s *Store) InUseTaxi(ctx context.Context, driverID types.ID) (*Taxi, error) {
	var t Taxi
	err := infra.Conn(ctx, s.db).QueryRow(ctx, `
		SELECT id, driver_id, plate, seats, in_use
		FROM taxis
		WHERE driver_id = $1 AND in_use AND deleted_at IS NULL
		LIMIT 1`, string(driverID),
	).Scan(&t.ID, &t.DriverID, &t.Plate, &t.Seats, &t.InUse)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTaxi
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var rate *string
	err := row.Scan(&d.ID, &d.Name, &d.Active, &d.Balance, &rate, &d.CreatedAt, &d.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rate != nil {
		r, err := decimal.NewFromString(*rate)
		if err != nil {
			return nil, err
		}
		d.CommissionRate = &r
	}
	return &d, nil
}
