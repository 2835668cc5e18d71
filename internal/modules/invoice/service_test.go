// README: Invoice derivation tests; run against FRETA_TEST_DSN.
package invoice

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"freta/internal/db"
	"freta/internal/modules/arbitration"
	"freta/internal/modules/offer"
	"freta/internal/modules/request"
	"freta/internal/types"
)

type testEnv struct {
	invoices    *Service
	requests    *request.Service
	offers      *offer.Service
	arbitration *arbitration.Service
}

func setupTestEnv(t *testing.T, policy Policy) testEnv {
	t.Helper()

	dsn := os.Getenv("FRETA_TEST_DSN")
	if dsn == "" {
		t.Skip("FRETA_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := db.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE invoices, assignments, offers, request_state_events, transport_requests"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	requestSvc := request.NewService(request.NewStore(pool))
	offerSvc := offer.NewService(offer.NewStore(pool), requestSvc)
	assignmentStore := arbitration.NewStore(pool)
	arbitrationSvc := arbitration.NewService(requestSvc, offerSvc, assignmentStore, nil, zerolog.Nop())
	invoiceSvc := NewService(NewStore(pool), requestSvc, assignmentStore, policy)
	return testEnv{
		invoices:    invoiceSvc,
		requests:    requestSvc,
		offers:      offerSvc,
		arbitration: arbitrationSvc,
	}
}

func seedArbitratedRequest(t *testing.T, env testEnv, price string) types.ID {
	t.Helper()
	ctx := context.Background()

	reqID, err := env.requests.Create(ctx, request.CreateCommand{
		ClientID:        "client-1",
		PickupAddress:   "Rua das Flores 9, Porto",
		DeliveryAddress: "Bahnhofstrasse 3, Zurich",
		PickupCountry:   "PT",
		DeliveryCountry: "CH",
		Dims:            types.Dimensions{HeightCm: 80, WidthCm: 60, DepthCm: 60},
		WeightKg:        250,
		DistanceKm:      2100,
		Lane:            "PT→CH",
		EstimatedPrice:  decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	o, err := env.offers.Submit(ctx, offer.SubmitCommand{
		RequestID: reqID,
		PartnerID: "partner-1",
		Price:     decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("submit offer: %v", err)
	}
	if _, err := env.arbitration.Arbitrate(ctx, arbitration.ArbitrateCommand{
		RequestID: reqID, OfferID: o.ID, AdminID: "admin-1",
	}); err != nil {
		t.Fatalf("arbitrate: %v", err)
	}
	return reqID
}

func TestDerive(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, Policy{Mode: ModePercent, PercentBps: 1000})
	reqID := seedArbitratedRequest(t, env, "280.00")

	inv, err := env.invoices.Derive(ctx, reqID)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !inv.Amount.Equal(decimal.RequireFromString("280.00")) {
		t.Fatalf("amount = %s, want 280.00", inv.Amount)
	}
	if !inv.PlatformFee.Equal(decimal.RequireFromString("28.00")) {
		t.Fatalf("platform fee = %s, want 28.00", inv.PlatformFee)
	}
	if !inv.PartnerAmount.Equal(decimal.RequireFromString("252.00")) {
		t.Fatalf("partner amount = %s, want 252.00", inv.PartnerAmount)
	}
	if !inv.PlatformFee.Add(inv.PartnerAmount).Equal(inv.Amount) {
		t.Fatal("fee + partner amount != amount")
	}
	if inv.ClientID != "client-1" || inv.PartnerID != "partner-1" {
		t.Fatalf("unexpected parties: %+v", inv)
	}
	if inv.Status != PaymentPending {
		t.Fatalf("status = %s, want pending", inv.Status)
	}

	// A second derivation returns the same invoice, not a new one.
	again, err := env.invoices.Derive(ctx, reqID)
	if err != nil {
		t.Fatalf("second derive: %v", err)
	}
	if again.ID != inv.ID {
		t.Fatalf("second derive produced invoice %s, first produced %s", again.ID, inv.ID)
	}
}

func TestDeriveNotBillable(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, Policy{})

	reqID, err := env.requests.Create(ctx, request.CreateCommand{
		ClientID:        "client-2",
		PickupAddress:   "Rua A 1, Braga",
		DeliveryAddress: "Rua B 2, Faro",
		PickupCountry:   "PT",
		DeliveryCountry: "PT",
		Dims:            types.Dimensions{HeightCm: 30, WidthCm: 30, DepthCm: 30},
		WeightKg:        40,
		DistanceKm:      550,
		Lane:            "PT→PT",
		EstimatedPrice:  decimal.NewFromInt(130),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	if _, err := env.invoices.Derive(ctx, reqID); !errors.Is(err, ErrNotBillable) {
		t.Fatalf("derive on pending request: got %v, want ErrNotBillable", err)
	}
}

func TestPaymentTransitions(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, Policy{Mode: ModeFlat, Flat: decimal.NewFromInt(15)})
	reqID := seedArbitratedRequest(t, env, "200")

	inv, err := env.invoices.Derive(ctx, reqID)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	if _, err := env.invoices.SetPaymentStatus(ctx, inv.ID, PaymentRefunded); !errors.Is(err, ErrInvalidPaymentMove) {
		t.Fatalf("pending to refunded: got %v, want ErrInvalidPaymentMove", err)
	}

	paid, err := env.invoices.SetPaymentStatus(ctx, inv.ID, PaymentPaid)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != PaymentPaid || paid.PaidAt == nil {
		t.Fatalf("paid invoice: %+v", paid)
	}

	if _, err := env.invoices.SetPaymentStatus(ctx, inv.ID, PaymentCancelled); !errors.Is(err, ErrInvalidPaymentMove) {
		t.Fatalf("paid to cancelled: got %v, want ErrInvalidPaymentMove", err)
	}

	refunded, err := env.invoices.SetPaymentStatus(ctx, inv.ID, PaymentRefunded)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != PaymentRefunded {
		t.Fatalf("status = %s, want refunded", refunded.Status)
	}
}

func TestInvoiceNotFound(t *testing.T) {
	env := setupTestEnv(t, Policy{})
	if _, err := env.invoices.Get(context.Background(), types.NewID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
