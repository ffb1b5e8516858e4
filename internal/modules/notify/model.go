// README: Notification events produced by dispatch and settlement; delivery belongs to the sinks.
package notify

import (
	"time"

	"ridebook/internal/types"
)

type Audience string

const (
	AudienceDriver Audience = "driver"
	AudienceAdmin  Audience = "admin"
)

type Kind string

const (
	KindDispatched Kind = "dispatched"
	KindClaimed    Kind = "claimed"
	KindPickingUp  Kind = "picking_up"
	KindCompleted  Kind = "completed"
	KindRoyalty    Kind = "royalty_paid"
	KindCancelled  Kind = "cancelled"
	KindRefunded   Kind = "refunded"
)

type Event struct {
	ID        types.ID  `json:"id"`
	Kind      Kind      `json:"kind"`
	Audience  Audience  `json:"audience"`
	DriverID  types.ID  `json:"driver_id,omitempty"`
	BookingID types.ID  `json:"booking_id"`
	DetailID  types.ID  `json:"booking_detail_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEvent(kind Kind, audience Audience, bookingID, detailID types.ID, msg string) Event {
	return Event{
		ID:        types.NewID(),
		Kind:      kind,
		Audience:  audience,
		BookingID: bookingID,
		DetailID:  detailID,
		Message:   msg,
		CreatedAt: time.Now(),
	}
}

// RoutingKey is used by broker sinks, e.g. booking.admin.royalty_paid.
func (e Event) RoutingKey() string {
	return "booking." + string(e.Audience) + "." + string(e.Kind)
}
