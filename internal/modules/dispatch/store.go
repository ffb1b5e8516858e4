// README: Candidate query backed by PostgreSQL; one read producing every tier fact per driver.
package dispatch

import (
	"context"

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

// Candidates lists drivers that are not banned, have an in-use taxi, are not excluded
// and never cancelled this booking before.
func (s *Store) Candidates(ctx context.Context, q Query) ([]Candidate, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		WITH shared AS (
			SELECT d.taxi_id, SUM(b.count) AS seats
			FROM booking_details d
			JOIN bookings b ON b.id = d.booking_id
			JOIN arrivals a ON a.id = b.arrival_id
			WHERE d.status IN (1, 2, 3)
			  AND b.id <> $1
			  AND b.start_at >= $2 AND b.start_at < $3
			  AND a.dropoff_id = $4
			  AND a.type = $5
			GROUP BY d.taxi_id
		)
		SELECT dr.id, t.id, t.seats, dr.commission_rate::text,
		       COALESCE(sh.seats, 0), sh.taxi_id IS NOT NULL,
		       EXISTS (
		           SELECT 1 FROM booking_details d
		           JOIN taxis dt ON dt.id = d.taxi_id
		           WHERE dt.driver_id = dr.id AND d.status = 4
		       ),
		       EXISTS (
		           SELECT 1 FROM booking_details d
		           JOIN taxis dt ON dt.id = d.taxi_id
		           JOIN bookings b ON b.id = d.booking_id
		           WHERE dt.driver_id = dr.id AND d.status IN (1, 2, 3)
		             AND b.start_at >= $2 AND b.start_at < $3
		       )
		FROM drivers dr
		JOIN taxis t ON t.driver_id = dr.id AND t.in_use AND t.deleted_at IS NULL
		LEFT JOIN shared sh ON sh.taxi_id = t.id
		WHERE dr.deleted_at IS NULL
		  AND dr.id <> $6
		  AND NOT EXISTS (
		      SELECT 1 FROM booking_details d
		      JOIN taxis dt ON dt.id = d.taxi_id
		      WHERE d.booking_id = $1 AND dt.driver_id = dr.id AND d.status = 5
		  )
		ORDER BY dr.id`,
		string(q.BookingID), q.DayStart, q.DayEnd, string(q.DropoffID), q.RouteType, string(q.Exclude),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var driverID, taxiID string
		var rate *string
		if err := rows.Scan(&driverID, &taxiID, &c.Seats, &rate, &c.SharedSeats, &c.Shares, &c.HasCompleted, &c.HasConflict); err != nil {
			return nil, err
		}
		c.DriverID, c.TaxiID = types.ID(driverID), types.ID(taxiID)
		if rate != nil {
			r, err := decimal.NewFromString(*rate)
			if err != nil {
				return nil, err
			}
			c.CommissionRate = &r
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
