// README: Arbitration saga: conditional accept, sibling rejection, assignment creation.
package arbitration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"freta/internal/modules/offer"
	"freta/internal/modules/request"
	"freta/internal/types"
)

var (
	// ErrOfferMismatch means the offer does not belong to the given request.
	ErrOfferMismatch      = errors.New("offer does not belong to request")
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrReconcileNeeded is returned when the request was accepted but a
	// follow-up step failed. The acceptance stands; Reconcile retries the
	// remaining idempotent steps.
	ErrReconcileNeeded = errors.New("arbitration accepted but follow-up incomplete")
)

// Claimer is the optional attempt fast path (Redis). A nil Claimer disables it.
type Claimer interface {
	Claim(ctx context.Context, requestID types.ID, attemptID string) (bool, error)
	Release(ctx context.Context, requestID types.ID, attemptID string) error
}

type Service struct {
	requests    *request.Service
	offers      *offer.Service
	assignments *Store
	attempts    Claimer
	log         zerolog.Logger
}

func NewService(requests *request.Service, offers *offer.Service, assignments *Store, attempts Claimer, log zerolog.Logger) *Service {
	return &Service{
		requests:    requests,
		offers:      offers,
		assignments: assignments,
		attempts:    attempts,
		log:         log,
	}
}

type ArbitrateCommand struct {
	RequestID types.ID
	OfferID   types.ID
	AdminID   types.ID
}

// Arbitrate selects the winning offer for a request.
//
// Step order matters: the conditional pending→accepted write is the single
// linearization point, so two concurrent arbitrations can never both succeed.
// Everything after it is idempotent and retried via Reconcile on failure.
func (s *Service) Arbitrate(ctx context.Context, cmd ArbitrateCommand) (*Assignment, error) {
	req, err := s.requests.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	off, err := s.offers.Get(ctx, cmd.OfferID)
	if err != nil {
		return nil, err
	}
	if off.RequestID != req.ID {
		return nil, ErrOfferMismatch
	}
	if off.Status != offer.StatusPending {
		return nil, fmt.Errorf("%w: offer already %s", offer.ErrRequestNotOpen, off.Status)
	}

	attemptID := uuid.New().String()
	if s.attempts != nil {
		claimed, err := s.attempts.Claim(ctx, req.ID, attemptID)
		if err != nil {
			// Redis being down must not block arbitration; the CAS below
			// still guarantees a single winner.
			s.log.Warn().Err(err).Str("request_id", string(req.ID)).Msg("attempt claim unavailable")
		} else if !claimed {
			return nil, request.ErrConflict
		}
	}

	if err := s.requests.Accept(ctx, request.AcceptCommand{
		RequestID: req.ID,
		OfferID:   off.ID,
		Price:     off.Price,
		AdminID:   cmd.AdminID,
	}); err != nil {
		if s.attempts != nil {
			_ = s.attempts.Release(ctx, req.ID, attemptID)
		}
		return nil, err
	}

	assignment, err := s.finish(ctx, req.ID, off, cmd.AdminID)
	if err != nil {
		s.log.Error().Err(err).
			Str("request_id", string(req.ID)).
			Str("offer_id", string(off.ID)).
			Msg("arbitration follow-up failed; reconciliation required")
		return nil, fmt.Errorf("%w: %v", ErrReconcileNeeded, err)
	}
	return assignment, nil
}

// Reconcile retries the post-acceptance steps for a request whose arbitration
// was interrupted. Safe to call any number of times.
func (s *Service) Reconcile(ctx context.Context, requestID, adminID types.ID) (*Assignment, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.SelectedOfferID == nil {
		return nil, fmt.Errorf("%w: request %s has no selected offer", ErrAssignmentNotFound, requestID)
	}
	off, err := s.offers.Get(ctx, *req.SelectedOfferID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, req.ID, off, adminID)
}

// finish runs steps 4–5 of the saga. Each step is individually idempotent:
// status promotions are conditional updates and the assignment insert is
// guarded by the unique request index.
func (s *Service) finish(ctx context.Context, requestID types.ID, off *offer.Offer, adminID types.ID) (*Assignment, error) {
	if err := s.offers.MarkAccepted(ctx, off.ID); err != nil {
		return nil, err
	}
	if _, err := s.offers.RejectAllExcept(ctx, requestID, off.ID); err != nil {
		return nil, err
	}
	if err := s.assignments.Create(ctx, &Assignment{
		ID:        types.NewID(),
		RequestID: requestID,
		PartnerID: off.PartnerID,
		AdminID:   adminID,
		Price:     off.Price,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return s.assignments.GetByRequest(ctx, requestID)
}

// Assignment returns the audit record for a request.
func (s *Service) Assignment(ctx context.Context, requestID types.ID) (*Assignment, error) {
	return s.assignments.GetByRequest(ctx, requestID)
}
