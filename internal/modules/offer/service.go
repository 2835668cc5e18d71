// README: Offer book service; enforces the request-open and price rules.
package offer

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"freta/internal/modules/request"
	"freta/internal/types"
)

var (
	ErrNotFound = errors.New("offer not found")
	// ErrRequestNotOpen means the request left pending before this bid landed.
	ErrRequestNotOpen = errors.New("request is not open for offers")
	ErrInvalidPrice   = errors.New("offer price must be positive")
)

// RequestGetter is the slice of the request service the offer book needs.
type RequestGetter interface {
	Get(ctx context.Context, id types.ID) (*request.TransportRequest, error)
}

type Service struct {
	store    *Store
	requests RequestGetter
}

func NewService(store *Store, requests RequestGetter) *Service {
	return &Service{store: store, requests: requests}
}

type SubmitCommand struct {
	RequestID types.ID
	PartnerID types.ID
	Price     decimal.Decimal
	Message   string
}

// Submit inserts a new pending offer. Concurrent submissions never conflict
// with each other: each is an independent insert. A submission racing an
// arbitration that closes the request may still land; rejectAllExcept settles
// it on the arbitration side, so exclusivity holds either way.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*Offer, error) {
	if cmd.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	r, err := s.requests.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if r.Status != request.StatusPending {
		return nil, ErrRequestNotOpen
	}

	o := &Offer{
		ID:        types.NewID(),
		RequestID: cmd.RequestID,
		PartnerID: cmd.PartnerID,
		Price:     cmd.Price,
		Message:   cmd.Message,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Offer, error) {
	return s.store.Get(ctx, id)
}

// ListByRequest returns a request's offers, newest first.
func (s *Service) ListByRequest(ctx context.Context, requestID types.ID, limit, offset int) ([]Offer, error) {
	return s.store.ListByRequest(ctx, requestID, limit, offset)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID types.ID, limit, offset int) ([]Offer, error) {
	return s.store.ListByPartner(ctx, partnerID, limit, offset)
}

// MarkAccepted and RejectAllExcept are arbitration hooks; both are idempotent.
func (s *Service) MarkAccepted(ctx context.Context, id types.ID) error {
	return s.store.MarkAccepted(ctx, id)
}

func (s *Service) RejectAllExcept(ctx context.Context, requestID, keepOfferID types.ID) (int64, error) {
	return s.store.RejectAllExcept(ctx, requestID, keepOfferID)
}
