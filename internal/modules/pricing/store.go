// README: Pricing store backed by PostgreSQL.
package pricing

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

func (s *Store) RoutePrice(ctx context.Context, from, to types.ID) (RoutePrice, error) {
	p := RoutePrice{FromID: from, ToID: to}
	err := infra.Conn(ctx, s.db).QueryRow(ctx,
		`SELECT price FROM route_prices WHERE from_id = $1 AND to_id = $2`,
		string(from), string(to),
	).Scan(&p.Amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoutePrice{}, ErrNoRoutePrice
	}
	return p, err
}
