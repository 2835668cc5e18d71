// README: Assignment audit record created at arbitration time.
package arbitration

import (
	"time"

	"github.com/shopspring/decimal"

	"freta/internal/types"
)

// Assignment binds a request to the winning partner at the accepted price.
// Exactly one exists per request; it is never mutated.
type Assignment struct {
	ID        types.ID
	RequestID types.ID
	PartnerID types.ID
	AdminID   types.ID
	Price     decimal.Decimal
	CreatedAt time.Time
}
