// README: Request lifecycle service; the only writer of transport request status.
package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"freta/internal/types"
)

var (
	ErrNotFound          = errors.New("transport request not found")
	ErrBadRequest        = errors.New("bad request")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict means a concurrent writer won the conditional status write.
	// Callers must reload current state before deciding anything; blind
	// re-application would break exclusivity.
	ErrConflict = errors.New("concurrent status change")
)

func transitionError(from, to Status) error {
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	ClientID        types.ID
	PickupAddress   string
	DeliveryAddress string
	Pickup          *types.Point
	Delivery        *types.Point
	PickupCountry   string
	DeliveryCountry string
	Dims            types.Dimensions
	WeightKg        float64
	DistanceKm      float64
	Lane            string
	EstimatedPrice  decimal.Decimal
}

type AcceptCommand struct {
	RequestID types.ID
	OfferID   types.ID
	Price     decimal.Decimal
	AdminID   types.ID
}

type CancelCommand struct {
	RequestID types.ID
	ActorType string
	ActorID   types.ID
}

type AdvanceCommand struct {
	RequestID types.ID
	Next      Status
	PartnerID types.ID
}

// Create opens a request in pending with no final price and no selected offer.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.ClientID == "" || cmd.PickupAddress == "" || cmd.DeliveryAddress == "" {
		return "", ErrBadRequest
	}
	if cmd.WeightKg <= 0 {
		return "", ErrBadRequest
	}

	id := types.NewID()
	now := time.Now().UTC()
	r := &TransportRequest{
		ID:              id,
		ClientID:        cmd.ClientID,
		PickupAddress:   cmd.PickupAddress,
		DeliveryAddress: cmd.DeliveryAddress,
		Pickup:          cmd.Pickup,
		Delivery:        cmd.Delivery,
		PickupCountry:   cmd.PickupCountry,
		DeliveryCountry: cmd.DeliveryCountry,
		Dims:            cmd.Dims,
		WeightKg:        cmd.WeightKg,
		VolumeM3:        cmd.Dims.VolumeM3(),
		DistanceKm:      cmd.DistanceKm,
		Lane:            cmd.Lane,
		EstimatedPrice:  cmd.EstimatedPrice,
		Status:          StatusPending,
		StatusVersion:   0,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  id,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "client",
		ActorID:    &cmd.ClientID,
		CreatedAt:  now,
	})
	return id, nil
}

// Accept transitions pending → accepted, binding the winning offer and its
// price. The conditional write is the linearization point for arbitration:
// of two concurrent accepts, exactly one sees rows affected.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	r, err := s.store.Get(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusAccepted) {
		return transitionError(r.Status, StatusAccepted)
	}
	ok, err := s.store.AcceptOffer(ctx, r.ID, r.StatusVersion, cmd.OfferID, cmd.Price)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: StatusPending,
		ToStatus:   StatusAccepted,
		ActorType:  "admin",
		ActorID:    &cmd.AdminID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Cancel is legal from pending or accepted only. Offers already settled by
// arbitration are left untouched.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	r, err := s.store.Get(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return transitionError(r.Status, StatusCancelled)
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusCancelled, r.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    &cmd.ActorID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// Advance moves an accepted request along accepted → in_progress → delivered,
// driven by partner tracking events. Skipped or out-of-order steps are rejected.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) error {
	if cmd.Next != StatusInProgress && cmd.Next != StatusDelivered {
		return transitionError(StatusNone, cmd.Next)
	}
	r, err := s.store.Get(ctx, cmd.RequestID)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, cmd.Next) {
		return transitionError(r.Status, cmd.Next)
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, cmd.Next, r.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		RequestID:  r.ID,
		FromStatus: r.Status,
		ToStatus:   cmd.Next,
		ActorType:  "partner",
		ActorID:    &cmd.PartnerID,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*TransportRequest, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID types.ID, limit, offset int) ([]TransportRequest, error) {
	return s.store.ListByClient(ctx, clientID, limit, offset)
}

// ListOpen returns pending requests, newest first, for partners to bid on.
func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]TransportRequest, error) {
	return s.store.ListByStatus(ctx, StatusPending, limit, offset)
}

func (s *Service) Events(ctx context.Context, requestID types.ID) ([]Event, error) {
	return s.store.ListEvents(ctx, requestID)
}
