// README: Driver and taxi aggregates as consumed by dispatch and settlement.
package driver

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

var (
	ErrNotFound = fmt.Errorf("%w: driver", types.ErrNotFound)
	ErrNoTaxi   = fmt.Errorf("%w: driver has no taxi in use", types.ErrNotFound)
	ErrBanned   = fmt.Errorf("%w: driver is banned", types.ErrConflict)
)

type Driver struct {
	ID      types.ID
	Name    string
	Active  bool
	Balance int64
	// CommissionRate is a percentage; nil means the platform default applies.
	CommissionRate *decimal.Decimal
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

func (d *Driver) Banned() bool { return d.DeletedAt != nil }

type Taxi struct {
	ID       types.ID
	DriverID types.ID
	Plate    string
	Seats    int
	InUse    bool
}
