// README: Ledger service; a posting is a balance change plus its wallet and revenue lines.
package ledger

import (
	"context"
	"fmt"
	"time"

	"ridebook/internal/types"
)

type Repository interface {
	AdjustBalance(ctx context.Context, driverID types.ID, delta int64) (int64, error)
	InsertWalletEntry(ctx context.Context, e *WalletEntry) error
	InsertRevenueEntry(ctx context.Context, e *RevenueEntry) error
	ListWalletEntries(ctx context.Context, driverID types.ID, limit int) ([]WalletEntry, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Post must run inside the caller's transaction; the caller's rollback undoes all three writes.
func (s *Service) Post(ctx context.Context, p Posting) (*Result, error) {
	if p.Amount == 0 {
		return nil, ErrZeroPosting
	}
	if p.DriverID.Empty() || p.DetailID.Empty() {
		return nil, fmt.Errorf("%w: posting needs driver and booking detail", types.ErrValidation)
	}

	balance, err := s.repo.AdjustBalance(ctx, p.DriverID, p.Amount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := &Result{
		Wallet: WalletEntry{
			ID:           types.NewID(),
			DriverID:     p.DriverID,
			DetailID:     p.DetailID,
			Kind:         p.Kind,
			Amount:       p.Amount,
			BalanceAfter: balance,
			Note:         p.Note,
			CreatedAt:    now,
		},
		Revenue: RevenueEntry{
			ID:        types.NewID(),
			DetailID:  p.DetailID,
			Kind:      p.Kind,
			Amount:    -p.Amount,
			Note:      p.Note,
			CreatedAt: now,
		},
	}
	if err := s.repo.InsertWalletEntry(ctx, &res.Wallet); err != nil {
		return nil, fmt.Errorf("insert wallet entry: %w", err)
	}
	if err := s.repo.InsertRevenueEntry(ctx, &res.Revenue); err != nil {
		return nil, fmt.Errorf("insert revenue entry: %w", err)
	}
	return res, nil
}

func (s *Service) Wallet(ctx context.Context, driverID types.ID, limit int) ([]WalletEntry, error) {
	if driverID.Empty() {
		return nil, fmt.Errorf("%w: driver id", types.ErrValidation)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListWalletEntries(ctx, driverID, limit)
}
