// README: Notification outbox; events are inserted in the transaction of the transition that produced them.
package notify

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"ridebook/internal/infra"
)

type Outbox struct {
	db *pgxpool.Pool
}

func NewOutbox(db *pgxpool.Pool) *Outbox {
	return &Outbox{db: db}
}

func (o *Outbox) Append(ctx context.Context, events ...Event) error {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	for _, e := range events {
		if _, err := tx.Exec(ctx, `
			INSERT INTO notifications (id, kind, audience, driver_id, booking_id, booking_detail_id, amount, message, created_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7, $8, $9)`,
			string(e.ID), string(e.Kind), string(e.Audience), string(e.DriverID),
			string(e.BookingID), string(e.DetailID), e.Amount, e.Message, e.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}
