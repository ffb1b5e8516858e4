// README: Driver wallet history.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridebook/internal/modules/ledger"
	"ridebook/internal/types"
)

type WalletService interface {
	Wallet(ctx context.Context, driverID types.ID, limit int) ([]ledger.WalletEntry, error)
}

type WalletHandler struct {
	ledger WalletService
}

func NewWalletHandler(svc WalletService) *WalletHandler {
	return &WalletHandler{ledger: svc}
}

func (h *WalletHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.ledger.Wallet(c.Request.Context(), id, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]walletEntryView, len(entries))
	for i, e := range entries {
		out[i] = walletEntryView{
			ID:           e.ID,
			DetailID:     e.DetailID,
			Kind:         e.Kind,
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
			Note:         e.Note,
			CreatedAt:    e.CreatedAt,
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": id, "entries": out})
}
