// README: Assignment store; the unique index on request_id makes creation idempotent.
package arbitration

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

// Create inserts the assignment unless one already exists for the request.
// Retried saga runs hit the conflict clause and change nothing.
func (s *Store) Create(ctx context.Context, a *Assignment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO assignments (id, request_id, partner_id, admin_id, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO NOTHING`,
		string(a.ID), string(a.RequestID), string(a.PartnerID),
		string(a.AdminID), a.Price.String(), a.CreatedAt)
	return err
}

func (s *Store) GetByRequest(ctx context.Context, requestID types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, request_id, partner_id, admin_id, price, created_at
		FROM assignments
		WHERE request_id = $1`, string(requestID))

	var a Assignment
	var price string
	err := row.Scan(&a.ID, &a.RequestID, &a.PartnerID, &a.AdminID, &price, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
