package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridebook/internal/types"
)

type memRepo struct {
	balances   map[types.ID]int64
	wallet     []WalletEntry
	revenue    []RevenueEntry
	revenueErr error
}

func (m *memRepo) AdjustBalance(_ context.Context, id types.ID, delta int64) (int64, error) {
	b, ok := m.balances[id]
	if !ok {
		return 0, ErrDriverNotFound
	}
	if b+delta < 0 {
		return 0, ErrInsufficientBalance
	}
	m.balances[id] = b + delta
	return b + delta, nil
}

func (m *memRepo) InsertWalletEntry(_ context.Context, e *WalletEntry) error {
	m.wallet = append(m.wallet, *e)
	return nil
}

func (m *memRepo) InsertRevenueEntry(_ context.Context, e *RevenueEntry) error {
	if m.revenueErr != nil {
		return m.revenueErr
	}
	m.revenue = append(m.revenue, *e)
	return nil
}

func (m *memRepo) ListWalletEntries(_ context.Context, id types.ID, limit int) ([]WalletEntry, error) {
	var out []WalletEntry
	for _, e := range m.wallet {
		if e.DriverID == id && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestPostPairsWalletAndRevenue(t *testing.T) {
	repo := &memRepo{balances: map[types.ID]int64{"d1": 50_000}}
	svc := NewService(repo)

	res, err := svc.Post(context.Background(), Posting{DriverID: "d1", DetailID: "bd1", Kind: KindCommission, Amount: -30_000})
	require.NoError(t, err)

	assert.Equal(t, int64(20_000), repo.balances["d1"])
	require.Len(t, repo.wallet, 1)
	require.Len(t, repo.revenue, 1)
	assert.Equal(t, int64(-30_000), repo.wallet[0].Amount)
	assert.Equal(t, int64(20_000), repo.wallet[0].BalanceAfter)
	assert.Equal(t, int64(30_000), repo.revenue[0].Amount)
	assert.Equal(t, res.Wallet.Amount, -res.Revenue.Amount)
}

func TestPostRejectsOverdraft(t *testing.T) {
	repo := &memRepo{balances: map[types.ID]int64{"d1": 10_000}}
	svc := NewService(repo)

	_, err := svc.Post(context.Background(), Posting{DriverID: "d1", DetailID: "bd1", Kind: KindCommission, Amount: -30_000})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.Equal(t, int64(10_000), repo.balances["d1"])
	assert.Empty(t, repo.wallet)
	assert.Empty(t, repo.revenue)
}

func TestPostValidation(t *testing.T) {
	svc := NewService(&memRepo{balances: map[types.ID]int64{}})
	ctx := context.Background()

	_, err := svc.Post(ctx, Posting{DriverID: "d1", DetailID: "bd1", Amount: 0})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = svc.Post(ctx, Posting{DetailID: "bd1", Amount: 10})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = svc.Post(ctx, Posting{DriverID: "ghost", DetailID: "bd1", Amount: 10})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPostSurfacesRevenueFailure(t *testing.T) {
	repo := &memRepo{balances: map[types.ID]int64{"d1": 0}, revenueErr: errors.New("disk full")}
	svc := NewService(repo)

	_, err := svc.Post(context.Background(), Posting{DriverID: "d1", DetailID: "bd1", Kind: KindRoyalty, Amount: 15_000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert revenue entry")
}
