// README: Offer store backed by PostgreSQL.
package offer

import (
	"context"
	"errors"

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

const offerColumns = `id, request_id, partner_id, price, message, status, created_at`

func (s *Store) Create(ctx context.Context, o *Offer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO offers (id, request_id, partner_id, price, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(o.ID), string(o.RequestID), string(o.PartnerID),
		o.Price.String(), o.Message, string(o.Status), o.CreatedAt)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Offer, error) {
	row := s.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, string(id))
	o, err := scanOffer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *Store) ListByRequest(ctx context.Context, requestID types.ID, limit, offset int) ([]Offer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(requestID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (s *Store) ListByPartner(ctx context.Context, partnerID types.ID, limit, offset int) ([]Offer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(partnerID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

// MarkAccepted promotes the winning offer. Re-running on an already accepted
// offer is a no-op, which keeps arbitration retries safe.
func (s *Store) MarkAccepted(ctx context.Context, id types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE offers SET status = 'accepted'
		WHERE id = $1 AND status IN ('pending', 'accepted')`,
		string(id))
	return err
}

// RejectAllExcept settles every other pending offer on the request in one
// statement. Idempotent: already settled offers are not touched.
func (s *Store) RejectAllExcept(ctx context.Context, requestID, keepOfferID types.ID) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE offers SET status = 'rejected'
		WHERE request_id = $1 AND id <> $2 AND status = 'pending'`,
		string(requestID), string(keepOfferID))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanOffer(row interface{ Scan(dest ...any) error }) (*Offer, error) {
	var o Offer
	var price string
	if err := row.Scan(&o.ID, &o.RequestID, &o.PartnerID, &price, &o.Message, &o.Status, &o.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	o.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOffers(rows pgx.Rows) ([]Offer, error) {
	var out []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
