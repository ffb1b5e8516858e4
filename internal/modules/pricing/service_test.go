package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ridebook/internal/modules/booking"
	"ridebook/internal/types"
)

type routeTable map[[2]types.ID]int64

func (r routeTable) RoutePrice(_ context.Context, from, to types.ID) (RoutePrice, error) {
	v, ok := r[[2]types.ID{from, to}]
	if !ok {
		return RoutePrice{}, ErrNoRoutePrice
	}
	return RoutePrice{FromID: from, ToID: to, Amount: v}, nil
}

type amounts map[string]int64

func (a amounts) Amount(_ context.Context, key string) (int64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrConfigMissing, key)
	}
	return v, nil
}

func TestService_Quote(t *testing.T) {
	routes := routeTable{
		{"jakarta", "bandung"}: 250_000,
		{"bandung", "jakarta"}: 0,
	}
	s := NewService(routes, amounts{"airport_price": 180_000})

	tests := []struct {
		name    string
		arrival booking.Arrival
		want    int64
		wantErr error
	}{
		{
			name:    "province route from table",
			arrival: booking.Arrival{Type: booking.RouteProvince, PickupID: "jakarta", DropoffID: "bandung"},
			want:    250_000,
		},
		{
			name:    "airport is flat",
			arrival: booking.Arrival{Type: booking.RouteAirport, PickupID: "cgk", DropoffID: "bandung"},
			want:    180_000,
		},
		{
			name:    "unknown province route",
			arrival: booking.Arrival{Type: booking.RouteProvince, PickupID: "jakarta", DropoffID: "bogor"},
			wantErr: types.ErrNotFound,
		},
		{
			name:    "zero price rejected",
			arrival: booking.Arrival{Type: booking.RouteProvince, PickupID: "bandung", DropoffID: "jakarta"},
			wantErr: types.ErrValidation,
		},
		{
			name:    "unknown route type",
			arrival: booking.Arrival{Type: "sea"},
			wantErr: types.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Quote(context.Background(), tt.arrival)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Quote() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Quote() error = %v", err)
				return
			}
			if got.Amount != tt.want || got.Currency != "IDR" {
				t.Errorf("Quote() = %v, want %d IDR", got, tt.want)
			}
		})
	}

	if _, err := NewService(routes, amounts{"airport_price": 0}).Quote(context.Background(), booking.Arrival{Type: booking.RouteAirport}); !errors.Is(err, types.ErrConfigMissing) {
		t.Errorf("zero airport price: got %v, want a configuration error", err)
	}
	if _, err := NewService(routes, amounts{}).Quote(context.Background(), booking.Arrival{Type: booking.RouteAirport}); !errors.Is(err, types.ErrConfigMissing) {
		t.Errorf("missing airport price: got %v", err)
	}
}
