// README: Booking handlers for create, get and dispatch retry.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/modules/booking"
	"ridebook/internal/types"
)

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Created, error)
	Get(ctx context.Context, id types.ID) (*booking.BookingView, error)
	Redispatch(ctx context.Context, bookingID types.ID) (*booking.Assignment, error)
}

type BookingHandler struct {
	booking BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type createBookingReq struct {
	CustomerID       string    `json:"customer_id" binding:"required"`
	RouteType        string    `json:"route_type" binding:"required"`
	PickupID         string    `json:"pickup_id"`
	DropoffID        string    `json:"dropoff_id"`
	Count            int       `json:"count" binding:"required,min=1"`
	StartAt          time.Time `json:"start_at" binding:"required"`
	InvitingDriverID string    `json:"inviting_driver_id"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	out, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		CustomerID:       types.ID(req.CustomerID),
		RouteType:        booking.RouteType(req.RouteType),
		PickupID:         types.ID(req.PickupID),
		DropoffID:        types.ID(req.DropoffID),
		Count:            req.Count,
		StartAt:          req.StartAt,
		InvitingDriverID: types.ID(req.InvitingDriverID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	view := toBookingView(out.Booking)
	view.State = booking.StateAwaitingDriver
	if !out.Assignment.Awaiting {
		view.State = booking.State(booking.StatusRequested.String())
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"booking":    view,
		"assignment": toAssignmentView(out.Assignment),
	})
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.booking.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	view := toBookingView(v.Booking)
	view.State = v.State
	view.Details = toDetailViews(v.Details)
	writeJSON(c, http.StatusOK, view)
}

func (h *BookingHandler) Redispatch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.booking.Redispatch(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAssignmentView(a))
}
