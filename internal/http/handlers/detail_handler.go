// README: Driver-facing lifecycle handlers on a booking detail.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/modules/booking"
	"ridebook/internal/types"
)

type LifecycleService interface {
	Claim(ctx context.Context, cmd booking.ClaimCommand) (*booking.Result, error)
	Advance(ctx context.Context, cmd booking.AdvanceCommand) (*booking.Result, error)
	Complete(ctx context.Context, cmd booking.CompleteCommand) (*booking.Result, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) (*booking.Result, error)
}

type DetailHandler struct {
	lifecycle LifecycleService
}

func NewDetailHandler(svc LifecycleService) *DetailHandler {
	return &DetailHandler{lifecycle: svc}
}

type driverActionReq struct {
	DriverID string `json:"driver_id"`
}

func (h *DetailHandler) Claim(c *gin.Context) {
	h.act(c, func(ctx context.Context, cmd booking.TransitionCommand) (*booking.Result, error) {
		return h.lifecycle.Claim(ctx, booking.ClaimCommand(cmd))
	})
}

func (h *DetailHandler) Advance(c *gin.Context) {
	h.act(c, func(ctx context.Context, cmd booking.TransitionCommand) (*booking.Result, error) {
		return h.lifecycle.Advance(ctx, booking.AdvanceCommand(cmd))
	})
}

func (h *DetailHandler) Complete(c *gin.Context) {
	h.act(c, func(ctx context.Context, cmd booking.TransitionCommand) (*booking.Result, error) {
		return h.lifecycle.Complete(ctx, booking.CompleteCommand(cmd))
	})
}

func (h *DetailHandler) Cancel(c *gin.Context) {
	h.act(c, func(ctx context.Context, cmd booking.TransitionCommand) (*booking.Result, error) {
		return h.lifecycle.Cancel(ctx, booking.CancelCommand(cmd))
	})
}

func (h *DetailHandler) act(c *gin.Context, fn func(context.Context, booking.TransitionCommand) (*booking.Result, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req driverActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.DriverID) {
		writeError(c, http.StatusBadRequest, "missing driver_id")
		return
	}
	res, err := fn(c.Request.Context(), booking.TransitionCommand{DetailID: id, DriverID: types.ID(req.DriverID)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toResultView(res))
}
