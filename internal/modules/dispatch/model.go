// README: Dispatch candidates and the facts each selection tier filters on.
package dispatch

import (
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

const (
	TierNone             = 0
	TierCapacityAndRoute = 1
	TierProvenCompletion = 2
	TierNoConflict       = 3
)

// Candidate is an eligible driver with their in-use taxi.
type Candidate struct {
	DriverID types.ID
	TaxiID   types.ID
	Seats    int
	// CommissionRate is nil when the driver uses the platform default.
	CommissionRate *decimal.Decimal
	// SharedSeats are seats already held on the taxi by other active bookings with the
	// same start date, drop-off and route type; Shares reports at least one such booking.
	SharedSeats  int
	Shares       bool
	HasCompleted bool
	// HasConflict is an active assignment for the driver on the same start date.
	HasConflict bool
}

// Query describes the booking being dispatched.
type Query struct {
	BookingID types.ID
	DayStart  time.Time
	DayEnd    time.Time
	DropoffID types.ID
	RouteType string
	// Exclude is the inviting driver, who may not take the booking.
	Exclude types.ID
}

// Awaiting is a booking that found no driver.
type Awaiting struct {
	BookingID types.ID  `json:"booking_id"`
	Since     time.Time `json:"since"`
}
