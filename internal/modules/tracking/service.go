// README: Tracking service; only the assigned partner may append, and progress labels drive the lifecycle.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freta/internal/modules/arbitration"
	"freta/internal/modules/request"
	"freta/internal/types"
)

var (
	// ErrNotAssigned rejects writes from a partner who does not own the
	// request's assignment.
	ErrNotAssigned  = errors.New("partner does not hold the assignment")
	ErrUnknownLabel = errors.New("unknown tracking status label")
)

// AssignmentReader is the slice of arbitration the tracker needs.
type AssignmentReader interface {
	GetByRequest(ctx context.Context, requestID types.ID) (*arbitration.Assignment, error)
}

type Service struct {
	store       *Store
	requests    *request.Service
	assignments AssignmentReader
}

func NewService(store *Store, requests *request.Service, assignments AssignmentReader) *Service {
	return &Service{store: store, requests: requests, assignments: assignments}
}

type AppendCommand struct {
	RequestID   types.ID
	PartnerID   types.ID
	StatusLabel string
	Note        string
	PhotoRefs   []string
}

// Append records a tracking event. Progress labels advance the request first;
// an out-of-order label fails before anything is written.
func (s *Service) Append(ctx context.Context, cmd AppendCommand) (*Update, error) {
	a, err := s.assignments.GetByRequest(ctx, cmd.RequestID)
	if err != nil {
		if errors.Is(err, arbitration.ErrAssignmentNotFound) {
			return nil, ErrNotAssigned
		}
		return nil, err
	}
	if a.PartnerID != cmd.PartnerID {
		return nil, ErrNotAssigned
	}

	switch cmd.StatusLabel {
	case LabelPickedUp:
		err = s.requests.Advance(ctx, request.AdvanceCommand{
			RequestID: cmd.RequestID,
			Next:      request.StatusInProgress,
			PartnerID: cmd.PartnerID,
		})
	case LabelDelivered:
		err = s.requests.Advance(ctx, request.AdvanceCommand{
			RequestID: cmd.RequestID,
			Next:      request.StatusDelivered,
			PartnerID: cmd.PartnerID,
		})
	case LabelNote:
		// Informational, no lifecycle effect.
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, cmd.StatusLabel)
	}
	if err != nil {
		return nil, err
	}

	u := &Update{
		ID:          types.NewID(),
		RequestID:   cmd.RequestID,
		PartnerID:   cmd.PartnerID,
		StatusLabel: cmd.StatusLabel,
		Note:        cmd.Note,
		PhotoRefs:   cmd.PhotoRefs,
		CreatedAt:   time.Now().UTC(),
	}
	if u.PhotoRefs == nil {
		u.PhotoRefs = []string{}
	}
	if err := s.store.Append(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID types.ID) ([]Update, error) {
	return s.store.ListByRequest(ctx, requestID)
}

type PositionCommand struct {
	PartnerID types.ID
	RequestID *types.ID
	Point     types.Point
}

func (s *Service) UpdatePosition(ctx context.Context, cmd PositionCommand) error {
	return s.store.SetPosition(ctx, cmd.PartnerID, cmd.RequestID, cmd.Point)
}

func (s *Service) LastPosition(ctx context.Context, partnerID types.ID) (types.Point, bool, error) {
	return s.store.LastPosition(ctx, partnerID)
}
