// README: Invoice store; one invoice per request, conditional payment transitions.
package invoice

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

const invoiceColumns = `id, request_id, client_id, partner_id, amount, platform_fee, partner_amount, status, paid_at, created_at`

// Create inserts unless the request is already invoiced, making derivation
// retry-safe.
func (s *Store) Create(ctx context.Context, inv *Invoice) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO invoices (id, request_id, client_id, partner_id, amount, platform_fee, partner_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (request_id) DO NOTHING`,
		string(inv.ID), string(inv.RequestID), string(inv.ClientID), string(inv.PartnerID),
		inv.Amount.String(), inv.PlatformFee.String(), inv.PartnerAmount.String(),
		string(inv.Status), inv.CreatedAt)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Invoice, error) {
	row := s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, string(id))
	return scanInvoice(row)
}

func (s *Store) GetByRequest(ctx context.Context, requestID types.ID) (*Invoice, error) {
	row := s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE request_id = $1`, string(requestID))
	return scanInvoice(row)
}

// UpdateStatus performs a compare-and-swap on the payment status.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to PaymentStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE invoices
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'paid' THEN NOW() ELSE paid_at END
		WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var amount, fee, partnerAmount string
	err := row.Scan(
		&inv.ID, &inv.RequestID, &inv.ClientID, &inv.PartnerID,
		&amount, &fee, &partnerAmount, &inv.Status, &inv.PaidAt, &inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if inv.PlatformFee, err = decimal.NewFromString(fee); err != nil {
		return nil, err
	}
	if inv.PartnerAmount, err = decimal.NewFromString(partnerAmount); err != nil {
		return nil, err
	}
	return &inv, nil
}
