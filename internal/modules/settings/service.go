// README: Settings service; typed reads where an absent or malformed key is ErrConfigMissing.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

type Lookuper interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
}

type Service struct {
	store Lookuper
}

func NewService(store Lookuper) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.store.Lookup(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("lookup setting %s: %w", key, err)
	}
	return strings.TrimSpace(v), ok, nil
}

func (s *Service) required(ctx context.Context, key string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", types.ErrConfigMissing, key)
	}
	return v, nil
}

// Percent reads a percentage such as "30" or "12.5". Values outside 0..100 or with more
// than two decimals are rejected; rates are stored as NUMERIC(5, 2).
func (s *Service) Percent(ctx context.Context, key string) (decimal.Decimal, error) {
	v, err := s.required(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) || !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%w: %s has invalid percentage %q", types.ErrConfigMissing, key, v)
	}
	return d, nil
}

// Amount reads a money amount in minor units; zero or negative is a misconfiguration.
func (s *Service) Amount(ctx context.Context, key string) (int64, error) {
	v, err := s.required(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s has invalid amount %q", types.ErrConfigMissing, key, v)
	}
	return n, nil
}

func (s *Service) ID(ctx context.Context, key string) (types.ID, error) {
	v, err := s.required(ctx, key)
	if err != nil {
		return "", err
	}
	return types.ID(v), nil
}
