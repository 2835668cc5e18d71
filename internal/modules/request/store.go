// README: Transport request store backed by PostgreSQL with compare-and-swap status writes.
package request

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"freta/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const requestColumns = `
	id, client_id, pickup_address, delivery_address,
	pickup_lat, pickup_lng, delivery_lat, delivery_lng,
	pickup_country, delivery_country,
	height_cm, width_cm, depth_cm, weight_kg, volume_m3, distance_km, lane,
	estimated_price, final_price, selected_offer_id, status, status_version,
	created_at, accepted_at, picked_up_at, delivered_at, cancelled_at`

func (s *Store) Create(ctx context.Context, r *TransportRequest) error {
	var pickupLat, pickupLng, deliveryLat, deliveryLng *float64
	if r.Pickup != nil {
		pickupLat, pickupLng = &r.Pickup.Lat, &r.Pickup.Lng
	}
	if r.Delivery != nil {
		deliveryLat, deliveryLng = &r.Delivery.Lat, &r.Delivery.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO transport_requests (
			id, client_id, pickup_address, delivery_address,
			pickup_lat, pickup_lng, delivery_lat, delivery_lng,
			pickup_country, delivery_country,
			height_cm, width_cm, depth_cm, weight_kg, volume_m3, distance_km, lane,
			estimated_price, status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10,
			$11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21
		)`,
		string(r.ID),
		string(r.ClientID),
		r.PickupAddress,
		r.DeliveryAddress,
		pickupLat, pickupLng, deliveryLat, deliveryLng,
		r.PickupCountry, r.DeliveryCountry,
		r.Dims.HeightCm, r.Dims.WidthCm, r.Dims.DepthCm,
		r.WeightKg, r.VolumeM3, r.DistanceKm, r.Lane,
		r.EstimatedPrice.String(),
		string(r.Status),
		r.StatusVersion,
		r.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*TransportRequest, error) {
	row := s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM transport_requests WHERE id = $1`, string(id))
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *Store) ListByClient(ctx context.Context, clientID types.ID, limit, offset int) ([]TransportRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM transport_requests
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(clientID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *Store) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]TransportRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM transport_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// AcceptOffer performs the single conditional write that decides arbitration:
// it only succeeds when the request is still pending at the observed version.
func (s *Store) AcceptOffer(ctx context.Context, id types.ID, version int, offerID types.ID, price decimal.Decimal) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transport_requests
		SET status = 'accepted',
		    status_version = status_version + 1,
		    final_price = $2,
		    selected_offer_id = $3,
		    accepted_at = NOW()
		WHERE id = $1 AND status = 'pending' AND status_version = $4`,
		string(id), price.String(), string(offerID), version)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus is the guarded write for every non-arbitration transition.
// Cancelling clears final_price and selected_offer_id so a price is never
// attached to a non-active request.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transport_requests
		SET status = $1,
		    status_version = status_version + 1,
		    accepted_at  = CASE WHEN $1 = 'accepted'    THEN NOW() ELSE accepted_at END,
		    picked_up_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE picked_up_at END,
		    delivered_at = CASE WHEN $1 = 'delivered'   THEN NOW() ELSE delivered_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled'   THEN NOW() ELSE cancelled_at END,
		    final_price       = CASE WHEN $1 = 'cancelled' THEN NULL ELSE final_price END,
		    selected_offer_id = CASE WHEN $1 = 'cancelled' THEN NULL ELSE selected_offer_id END
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	var actorID *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actorID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO request_state_events (
			request_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RequestID), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, actorID, e.CreatedAt)
	return err
}

func (s *Store) ListEvents(ctx context.Context, requestID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, request_id, from_status, to_status, actor_type, actor_id, created_at
		FROM request_state_events
		WHERE request_id = $1
		ORDER BY created_at, id`, string(requestID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var actorID *string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.FromStatus, &e.ToStatus, &e.ActorType, &actorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			id := types.ID(*actorID)
			e.ActorID = &id
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*TransportRequest, error) {
	var r TransportRequest
	var pickupLat, pickupLng, deliveryLat, deliveryLng *float64
	var estimated string
	var final, selectedOffer *string
	var acceptedAt, pickedUpAt, deliveredAt, cancelledAt *time.Time

	err := row.Scan(
		&r.ID, &r.ClientID, &r.PickupAddress, &r.DeliveryAddress,
		&pickupLat, &pickupLng, &deliveryLat, &deliveryLng,
		&r.PickupCountry, &r.DeliveryCountry,
		&r.Dims.HeightCm, &r.Dims.WidthCm, &r.Dims.DepthCm,
		&r.WeightKg, &r.VolumeM3, &r.DistanceKm, &r.Lane,
		&estimated, &final, &selectedOffer, &r.Status, &r.StatusVersion,
		&r.CreatedAt, &acceptedAt, &pickedUpAt, &deliveredAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if pickupLat != nil && pickupLng != nil {
		r.Pickup = &types.Point{Lat: *pickupLat, Lng: *pickupLng}
	}
	if deliveryLat != nil && deliveryLng != nil {
		r.Delivery = &types.Point{Lat: *deliveryLat, Lng: *deliveryLng}
	}
	r.EstimatedPrice, err = decimal.NewFromString(estimated)
	if err != nil {
		return nil, err
	}
	if final != nil {
		p, err := decimal.NewFromString(*final)
		if err != nil {
			return nil, err
		}
		r.FinalPrice = &p
	}
	if selectedOffer != nil {
		id := types.ID(*selectedOffer)
		r.SelectedOfferID = &id
	}
	r.AcceptedAt = acceptedAt
	r.PickedUpAt = pickedUpAt
	r.DeliveredAt = deliveredAt
	r.CancelledAt = cancelledAt
	return &r, nil
}

func collectRequests(rows pgx.Rows) ([]TransportRequest, error) {
	var out []TransportRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
