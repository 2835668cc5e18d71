// README: Invoice model and payment-status state machine.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"freta/internal/types"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment transitions are independent of the transport request's own status.
var allowedPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentCancelled},
	PaymentPaid:    {PaymentRefunded},
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, s := range allowedPaymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Invoice is the billing record derived from an accepted request.
// Amount equals PlatformFee plus PartnerAmount at all times.
type Invoice struct {
	ID            types.ID
	RequestID     types.ID
	ClientID      types.ID
	PartnerID     types.ID
	Amount        decimal.Decimal
	PlatformFee   decimal.Decimal
	PartnerAmount decimal.Decimal
	Status        PaymentStatus
	PaidAt        *time.Time
	CreatedAt     time.Time
}
