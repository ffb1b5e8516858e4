// README: Pricing service quotes the fixed price of a booking's route.
package pricing

import (
	"context"
	"fmt"

	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/settings"
	"ridebook/internal/types"
)

type RouteSource interface {
	RoutePrice(ctx context.Context, from, to types.ID) (RoutePrice, error)
}

type Settings interface {
	Amount(ctx context.Context, key string) (int64, error)
}

type Service struct {
	routes   RouteSource
	settings Settings
}

func NewService(routes RouteSource, settings Settings) *Service {
	return &Service{routes: routes, settings: settings}
}

func (s *Service) Quote(ctx context.Context, a booking.Arrival) (types.Money, error) {
	var amount int64
	switch a.Type {
	case booking.RouteAirport:
		v, err := s.settings.Amount(ctx, settings.KeyAirportPrice)
		if err != nil {
			return types.Money{}, err
		}
		if v <= 0 {
			return types.Money{}, fmt.Errorf("%w: %s must be positive", types.ErrConfigMissing, settings.KeyAirportPrice)
		}
		amount = v
	case booking.RouteProvince:
		p, err := s.routes.RoutePrice(ctx, a.PickupID, a.DropoffID)
		if err != nil {
			return types.Money{}, err
		}
		amount = p.Amount
	default:
		return types.Money{}, fmt.Errorf("%w: route type %q", types.ErrValidation, a.Type)
	}
	if amount <= 0 {
		return types.Money{}, fmt.Errorf("%w: route price must be positive, got %d", types.ErrValidation, amount)
	}
	return types.Money{Amount: amount, Currency: types.DefaultCurrency}, nil
}
