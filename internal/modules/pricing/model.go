// README: Route prices; province routes are priced per pick-up/drop-off pair, airport routes flat.
package pricing

import (
	"fmt"

	"ridebook/internal/types"
)

var ErrNoRoutePrice = fmt.Errorf("%w: no price for route", types.ErrNotFound)

type RoutePrice struct {
	FromID types.ID
	ToID   types.ID
	Amount int64
}
