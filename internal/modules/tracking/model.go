// README: Append-only tracking updates and carrier positions.
package tracking

import (
	"time"

	"freta/internal/types"
)

// Status labels a partner may attach to an update. PickedUp and Delivered
// drive the request lifecycle; Note is informational only.
const (
	LabelPickedUp  = "picked_up"
	LabelDelivered = "delivered"
	LabelNote      = "note"
)

// Update is one append-only tracking event. Updates are never mutated or
// deleted and are read back in creation order.
type Update struct {
	ID          types.ID
	RequestID   types.ID
	PartnerID   types.ID
	StatusLabel string
	Note        string
	PhotoRefs   []string
	CreatedAt   time.Time
}

// Position is a carrier's last reported location.
type Position struct {
	PartnerID types.ID
	Point     types.Point
	UpdatedAt time.Time
}
