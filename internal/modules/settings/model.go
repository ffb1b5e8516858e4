// README: Named operator parameters consumed by dispatch and settlement.
package settings

const (
	KeyCommissionDefault = "commission_default"
	KeyRoyaltyDefault    = "royalty_default"
	KeyRefund3Day        = "refund_3_day"
	KeyRefund1Day        = "refund_1_day"
	KeyRefundOverdue     = "refund_overdue"
	KeyDefaultPickup     = "default_pickup"
	KeyDefaultDropoff    = "default_dropoff"
	KeyAirportPrice      = "airport_price"
)
