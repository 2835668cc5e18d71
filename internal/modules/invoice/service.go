// README: Invoice derivation from accepted requests and payment-status handling.
package invoice

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
	ErrNotFound = errors.New("invoice not found")
	// ErrNotBillable means the request has no accepted price to bill against.
	ErrNotBillable        = errors.New("request is not billable")
	ErrInvalidPaymentMove = errors.New("invalid payment status transition")
)

// RequestGetter and AssignmentReader are the read slices this service needs.
type RequestGetter interface {
	Get(ctx context.Context, id types.ID) (*request.TransportRequest, error)
}

type AssignmentReader interface {
	GetByRequest(ctx context.Context, requestID types.ID) (*arbitration.Assignment, error)
}

type Service struct {
	store       *Store
	requests    RequestGetter
	assignments AssignmentReader
	policy      Policy
}

func NewService(store *Store, requests RequestGetter, assignments AssignmentReader, policy Policy) *Service {
	return &Service{store: store, requests: requests, assignments: assignments, policy: policy}
}

// Derive creates the invoice for an accepted request. Idempotent: a second
// call returns the existing invoice unchanged.
func (s *Service) Derive(ctx context.Context, requestID types.ID) (*Invoice, error) {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.FinalPrice == nil {
		return nil, fmt.Errorf("%w: no final price on request %s", ErrNotBillable, requestID)
	}
	switch r.Status {
	case request.StatusAccepted, request.StatusInProgress, request.StatusDelivered:
	default:
		return nil, fmt.Errorf("%w: request status %s", ErrNotBillable, r.Status)
	}

	a, err := s.assignments.GetByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	amount := *r.FinalPrice
	fee := s.policy.Fee(amount)
	inv := &Invoice{
		ID:            types.NewID(),
		RequestID:     requestID,
		ClientID:      r.ClientID,
		PartnerID:     a.PartnerID,
		Amount:        amount,
		PlatformFee:   fee,
		PartnerAmount: amount.Sub(fee),
		Status:        PaymentPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, err
	}
	return s.store.GetByRequest(ctx, requestID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Invoice, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByRequest(ctx context.Context, requestID types.ID) (*Invoice, error) {
	return s.store.GetByRequest(ctx, requestID)
}

// SetPaymentStatus applies a payment-gateway outcome. Transitions outside
// pending→paid, pending→cancelled, paid→refunded are rejected.
func (s *Service) SetPaymentStatus(ctx context.Context, id types.ID, next PaymentStatus) (*Invoice, error) {
	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransitionPayment(inv.Status, next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidPaymentMove, inv.Status, next)
	}
	ok, err := s.store.UpdateStatus(ctx, id, inv.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another callback; the caller reloads and decides.
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidPaymentMove, inv.Status, next)
	}
	return s.store.Get(ctx, id)
}
