// README: Booking aggregate, booking details (driver assignments) and the detail state machine.
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ridebook/internal/types"
)

// Status is the state of one booking detail. It is the only status a booking has;
// see Booking.State for the derived view.
type Status uint8

const (
	StatusRequested Status = iota + 1
	StatusClaimed
	StatusPickingUp
	StatusCompleted
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusRequested: "REQUESTED",
	StatusClaimed:   "CLAIMED",
	StatusPickingUp: "PICKING_UP",
	StatusCompleted: "COMPLETED",
	StatusCancelled: "CANCELLED",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports a non-terminal status. At most one detail per booking is active.
func (s Status) Active() bool {
	return s.Valid() && !s.Terminal()
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseStatus(in string) (Status, error) {
	want := strings.ToUpper(strings.TrimSpace(in))
	for s, n := range statusNames {
		if n == want {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", types.ErrValidation, in)
}

// AllowedTransitions is the complete transition table; anything absent is rejected.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusClaimed, StatusCancelled},
	StatusClaimed:   {StatusPickingUp, StatusCancelled},
	StatusPickingUp: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type RouteType string

const (
	RouteProvince RouteType = "province"
	RouteAirport  RouteType = "airport"
)

func (r RouteType) Valid() bool {
	return r == RouteProvince || r == RouteAirport
}

// Arrival describes the route of a booking; it is created with, and owned by, its booking.
type Arrival struct {
	ID        types.ID
	Type      RouteType
	PickupID  types.ID
	DropoffID types.ID
	Price     int64
}

type Booking struct {
	ID         types.ID
	Code       string
	CustomerID types.ID
	Arrival    Arrival
	Count      int
	// Price is copied from the route price at creation and never changes.
	Price    int64
	Currency string
	// InvitingDriverID is the referring driver; empty when there is none.
	InvitingDriverID types.ID
	CreatedAt        time.Time
	StartAt          time.Time
	EndAt            *time.Time
	DeletedAt        *time.Time
}

func (b *Booking) HasReferral() bool { return !b.InvitingDriverID.Empty() }

// Withheld is the commission taken when the detail was claimed: price less TotalPrice.
func (d *Detail) Withheld(price int64) int64 { return price - d.TotalPrice }

// Detail is one driver-assignment attempt for a booking.
type Detail struct {
	ID        types.ID
	BookingID types.ID
	TaxiID    types.ID
	// DriverID is the owner of TaxiID, resolved on read.
	DriverID       types.ID
	Status         Status
	CommissionRate decimal.Decimal
	TotalPrice     int64
	Version        int
	CreatedAt      time.Time
	ClaimedAt      *time.Time
	PickingUpAt    *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
}

// State is the externally visible state of a booking derived from its details.
type State string

const StateAwaitingDriver State = "AWAITING_DRIVER"

// DeriveState picks the active detail's status, else the most recent detail's, else awaiting.
func DeriveState(details []Detail) State {
	var latest *Detail
	for i := range details {
		d := &details[i]
		if d.Status.Active() {
			return State(d.Status.String())
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	if latest == nil || latest.Status == StatusCancelled {
		return StateAwaitingDriver
	}
	return State(latest.Status.String())
}

// Assignment is the outcome of a dispatch attempt. Awaiting is the normal
// no-driver-available outcome and carries no detail.
type Assignment struct {
	Awaiting bool
	Tier     int
	DriverID types.ID
	TaxiID   types.ID
	DetailID types.ID
}

// Transition is a compare-and-swap on a detail's status.
type Transition struct {
	DetailID       types.ID
	From           Status
	To             Status
	At             time.Time
	TaxiID         types.ID
	CommissionRate *decimal.Decimal
	TotalPrice     *int64
}

type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}
