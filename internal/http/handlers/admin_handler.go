// README: Admin read surface over booking details and bookings awaiting a driver.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/dispatch"
)

type DetailLister interface {
	ListDetails(ctx context.Context, f booking.ListFilter) ([]booking.Detail, error)
}

type AwaitingLister interface {
	ListAwaiting(ctx context.Context, limit int) ([]dispatch.Awaiting, error)
}

type AdminHandler struct {
	details  DetailLister
	awaiting AwaitingLister
}

func NewAdminHandler(details DetailLister, awaiting AwaitingLister) *AdminHandler {
	return &AdminHandler{details: details, awaiting: awaiting}
}

func (h *AdminHandler) ListDetails(c *gin.Context) {
	var f booking.ListFilter
	if s := c.Query("status"); s != "" {
		st, err := booking.ParseStatus(s)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		f.Status = &st
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	ds, err := h.details.ListDetails(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"details": toDetailViews(ds)})
}

func (h *AdminHandler) ListAwaiting(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	out, err := h.awaiting.ListAwaiting(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": out})
}
