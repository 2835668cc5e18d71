// README: Partner offer (bid) model.
package offer

import (
	"time"

	"github.com/shopspring/decimal"

	"freta/internal/types"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Offer is a partner's bid on a transport request. At most one offer per
// request ever reaches accepted; the rest are rejected in the same
// arbitration pass.
type Offer struct {
	ID        types.ID
	RequestID types.ID
	PartnerID types.ID
	Price     decimal.Decimal
	Message   string
	Status    Status
	CreatedAt time.Time
}
