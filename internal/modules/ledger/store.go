// README: Ledger store backed by PostgreSQL. Writes only run inside a unit of work.
package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridebook/internal/infra"
	"ridebook/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// AdjustBalance adds delta to the driver's balance unless that would make it negative.
func (s *Store) AdjustBalance(ctx context.Context, driverID types.ID, delta int64) (int64, error) {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var balance int64
	err = tx.QueryRow(ctx, `
		UPDATE drivers
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`, string(driverID), delta,
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drivers WHERE id = $1)`, string(driverID)).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrDriverNotFound
	}
	return 0, ErrInsufficientBalance
}

func (s *Store) InsertWalletEntry(ctx context.Context, e *WalletEntry) error {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_entries (id, driver_id, booking_detail_id, kind, amount, balance_after, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(e.ID), string(e.DriverID), string(e.DetailID), string(e.Kind),
		e.Amount, e.BalanceAfter, e.Note, e.CreatedAt,
	)
	return err
}

func (s *Store) InsertRevenueEntry(ctx context.Context, e *RevenueEntry) error {
	tx, err := infra.MustTxFromContext(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO revenue_entries (id, booking_detail_id, kind, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.ID), string(e.DetailID), string(e.Kind), e.Amount, e.Note, e.CreatedAt,
	)
	return err
}

func (s *Store) ListWalletEntries(ctx context.Context, driverID types.ID, limit int) ([]WalletEntry, error) {
	rows, err := infra.Conn(ctx, s.db).Query(ctx, `
		SELECT id, driver_id, booking_detail_id, kind, amount, balance_after, note, created_at
		FROM wallet_entries
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(driverID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WalletEntry
	for rows.Next() {
		var e WalletEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.DriverID, &e.DetailID, &kind, &e.Amount, &e.BalanceAfter, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
