// README: Ledger lines. Every posting yields one wallet entry and one revenue entry of opposite sign.
package ledger

import (
	"fmt"
	"time"

	"ridebook/internal/types"
)

type Kind string

const (
	KindCommission Kind = "commission"
	KindRoyalty    Kind = "royalty"
	KindRefund     Kind = "refund"
)

var (
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient wallet balance", types.ErrConflict)
	ErrZeroPosting         = fmt.Errorf("%w: posting amount must be non-zero", types.ErrValidation)
	ErrDriverNotFound      = fmt.Errorf("%w: driver", types.ErrNotFound)
)

// Posting is one balance change from the driver's point of view: negative debits the driver
// and credits the platform, positive does the reverse.
type Posting struct {
	DriverID types.ID
	DetailID types.ID
	Kind     Kind
	Amount   int64
	Note     string
}

type WalletEntry struct {
	ID           types.ID
	DriverID     types.ID
	DetailID     types.ID
	Kind         Kind
	Amount       int64
	BalanceAfter int64
	Note         string
	CreatedAt    time.Time
}

type RevenueEntry struct {
	ID        types.ID
	DetailID  types.ID
	Kind      Kind
	Amount    int64
	Note      string
	CreatedAt time.Time
}

type Result struct {
	Wallet  WalletEntry
	Revenue RevenueEntry
}
