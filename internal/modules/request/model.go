// README: Transport request aggregate and status state machine.
package request

import (
	"time"

	"github.com/shopspring/decimal"

	"freta/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions represents the request state flow as code. Delivered and
// cancelled are terminal: they have no outgoing edges.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// TransportRequest is the central record of the brokerage. FinalPrice and
// SelectedOfferID are nil until arbitration accepts an offer, and are cleared
// again if the request is cancelled afterwards.
type TransportRequest struct {
	ID              types.ID
	ClientID        types.ID
	PickupAddress   string
	DeliveryAddress string
	Pickup          *types.Point
	Delivery        *types.Point
	PickupCountry   string
	DeliveryCountry string
	Dims            types.Dimensions
	WeightKg        float64
	VolumeM3        float64
	DistanceKm      float64
	Lane            string
	EstimatedPrice  decimal.Decimal
	FinalPrice      *decimal.Decimal
	SelectedOfferID *types.ID
	Status          Status
	StatusVersion   int
	CreatedAt       time.Time
	AcceptedAt      *time.Time
	PickedUpAt      *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
}

// Event is one row of the append-only state audit trail.
type Event struct {
	ID         int64
	RequestID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}
