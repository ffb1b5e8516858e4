// README: Settlement arithmetic. Amounts are minor units; rates are percentages; results truncate toward zero.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// percentOf returns amount * pct / 100 without intermediate rounding.
func percentOf(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Shift(-2).Truncate(0).IntPart()
}

// Deduction is the commission withheld from a driver claiming a booking of price.
func Deduction(price int64, commissionPct decimal.Decimal) int64 {
	return percentOf(price, commissionPct)
}

// Royalty is the referral payout owed to the inviting driver out of a deduction.
func Royalty(deduction int64, royaltyPct decimal.Decimal) int64 {
	return percentOf(deduction, royaltyPct)
}

func Refund(deduction int64, refundPct decimal.Decimal) int64 {
	return percentOf(deduction, refundPct)
}

// RefundSchedule maps days-until-start to the share of the deduction returned on cancellation.
type RefundSchedule struct {
	ThreeDays decimal.Decimal
	OneDay    decimal.Decimal
	Overdue   decimal.Decimal
}

func (s RefundSchedule) Percent(daysUntilStart int) decimal.Decimal {
	switch {
	case daysUntilStart >= 3:
		return s.ThreeDays
	case daysUntilStart == 2:
		return s.OneDay
	default:
		return s.Overdue
	}
}

// DaysUntil counts calendar days from now to start, in start's location. Past starts are negative.
func DaysUntil(now, start time.Time) int {
	loc := start.Location()
	n := now.In(loc)
	from := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
