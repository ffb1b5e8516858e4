// README: JSON shapes returned by the API.
package handlers

import (
	"time"

	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/ledger"
	"ridebook/internal/types"
)

type bookingView struct {
	ID               types.ID      `json:"id"`
	Code             string        `json:"code"`
	CustomerID       types.ID      `json:"customer_id"`
	RouteType        string        `json:"route_type"`
	PickupID         types.ID      `json:"pickup_id"`
	DropoffID        types.ID      `json:"dropoff_id"`
	Count            int           `json:"count"`
	Price            int64         `json:"price"`
	Currency         string        `json:"currency"`
	InvitingDriverID types.ID      `json:"inviting_driver_id,omitempty"`
	StartAt          time.Time     `json:"start_at"`
	EndAt            *time.Time    `json:"end_at,omitempty"`
	State            booking.State `json:"state,omitempty"`
	Details          []detailView  `json:"details,omitempty"`
}

type detailView struct {
	ID             types.ID       `json:"id"`
	BookingID      types.ID       `json:"booking_id"`
	TaxiID         types.ID       `json:"taxi_id"`
	DriverID       types.ID       `json:"driver_id"`
	Status         booking.Status `json:"status"`
	CommissionRate string         `json:"commission_rate"`
	TotalPrice     int64          `json:"total_price"`
	CreatedAt      time.Time      `json:"created_at"`
	ClaimedAt      *time.Time     `json:"claimed_at,omitempty"`
	PickingUpAt    *time.Time     `json:"picking_up_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
}

type assignmentView struct {
	Awaiting bool     `json:"awaiting_driver"`
	Tier     int      `json:"tier,omitempty"`
	DriverID types.ID `json:"driver_id,omitempty"`
	DetailID types.ID `json:"detail_id,omitempty"`
}

type resultView struct {
	DetailID  types.ID       `json:"detail_id"`
	BookingID types.ID       `json:"booking_id"`
	Status    booking.Status `json:"status"`
	Delta     int64          `json:"delta"`
	Royalty   int64          `json:"royalty,omitempty"`
}

type walletEntryView struct {
	ID           types.ID    `json:"id"`
	DetailID     types.ID    `json:"detail_id"`
	Kind         ledger.Kind `json:"kind"`
	Amount       int64       `json:"amount"`
	BalanceAfter int64       `json:"balance_after"`
	Note         string      `json:"note"`
	CreatedAt    time.Time   `json:"created_at"`
}

func toBookingView(b *booking.Booking) bookingView {
	return bookingView{
		ID:               b.ID,
		Code:             b.Code,
		CustomerID:       b.CustomerID,
		RouteType:        string(b.Arrival.Type),
		PickupID:         b.Arrival.PickupID,
		DropoffID:        b.Arrival.DropoffID,
		Count:            b.Count,
		Price:            b.Price,
		Currency:         b.Currency,
		InvitingDriverID: b.InvitingDriverID,
		StartAt:          b.StartAt,
		EndAt:            b.EndAt,
	}
}

func toDetailView(d booking.Detail) detailView {
	return detailView{
		ID:             d.ID,
		BookingID:      d.BookingID,
		TaxiID:         d.TaxiID,
		DriverID:       d.DriverID,
		Status:         d.Status,
		CommissionRate: d.CommissionRate.String(),
		TotalPrice:     d.TotalPrice,
		CreatedAt:      d.CreatedAt,
		ClaimedAt:      d.ClaimedAt,
		PickingUpAt:    d.PickingUpAt,
		CompletedAt:    d.CompletedAt,
		CancelledAt:    d.CancelledAt,
	}
}

func toDetailViews(ds []booking.Detail) []detailView {
	out := make([]detailView, len(ds))
	for i, d := range ds {
		out[i] = toDetailView(d)
	}
	return out
}

func toAssignmentView(a *booking.Assignment) assignmentView {
	return assignmentView{Awaiting: a.Awaiting, Tier: a.Tier, DriverID: a.DriverID, DetailID: a.DetailID}
}

func toResultView(r *booking.Result) resultView {
	return resultView{DetailID: r.DetailID, BookingID: r.BookingID, Status: r.Status, Delta: r.Delta, Royalty: r.Royalty}
}
