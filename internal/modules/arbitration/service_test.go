// README: Arbitration saga tests; run with -race against FRETA_TEST_DSN.
package arbitration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"freta/internal/db"
	"freta/internal/modules/offer"
	"freta/internal/modules/request"
	"freta/internal/types"
)

type testEnv struct {
	arbitration *Service
	requests    *request.Service
	offers      *offer.Service
}

func setupTestEnv(t *testing.T, claimer Claimer) testEnv {
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
	if _, err := pool.Exec(ctx, "TRUNCATE TABLE assignments, offers, request_state_events, transport_requests"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	requestSvc := request.NewService(request.NewStore(pool))
	offerSvc := offer.NewService(offer.NewStore(pool), requestSvc)
	svc := NewService(requestSvc, offerSvc, NewStore(pool), claimer, zerolog.Nop())
	return testEnv{arbitration: svc, requests: requestSvc, offers: offerSvc}
}

func seedRequestWithOffers(t *testing.T, env testEnv, prices ...string) (types.ID, []offer.Offer) {
	t.Helper()
	ctx := context.Background()

	reqID, err := env.requests.Create(ctx, request.CreateCommand{
		ClientID:        "client-1",
		PickupAddress:   "Rua do Ouro 20, Lisboa",
		DeliveryAddress: "Rue de Rivoli 5, Paris",
		PickupCountry:   "PT",
		DeliveryCountry: "FR",
		Dims:            types.Dimensions{HeightCm: 100, WidthCm: 80, DepthCm: 60},
		WeightKg:        200,
		DistanceKm:      1450,
		Lane:            "PT→FR",
		EstimatedPrice:  decimal.NewFromInt(220),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	var offers []offer.Offer
	for i, price := range prices {
		o, err := env.offers.Submit(ctx, offer.SubmitCommand{
			RequestID: reqID,
			PartnerID: types.ID(fmt.Sprintf("partner-%d", i)),
			Price:     decimal.RequireFromString(price),
		})
		if err != nil {
			t.Fatalf("submit offer %d: %v", i, err)
		}
		offers = append(offers, *o)
	}
	return reqID, offers
}

func TestArbitrate(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, nil)
	reqID, offers := seedRequestWithOffers(t, env, "210", "195.50", "230")
	winner := offers[1]

	a, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqID,
		OfferID:   winner.ID,
		AdminID:   "admin-1",
	})
	if err != nil {
		t.Fatalf("arbitrate: %v", err)
	}
	if a.RequestID != reqID || a.PartnerID != winner.PartnerID {
		t.Fatalf("unexpected assignment: %+v", a)
	}
	if !a.Price.Equal(winner.Price) {
		t.Fatalf("assignment price = %s, want %s", a.Price, winner.Price)
	}

	r, err := env.requests.Get(ctx, reqID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.Status != request.StatusAccepted {
		t.Fatalf("request status = %s, want accepted", r.Status)
	}
	if r.FinalPrice == nil || !r.FinalPrice.Equal(winner.Price) {
		t.Fatalf("final price = %v, want %s", r.FinalPrice, winner.Price)
	}
	if r.SelectedOfferID == nil || *r.SelectedOfferID != winner.ID {
		t.Fatalf("selected offer = %v, want %s", r.SelectedOfferID, winner.ID)
	}

	all, err := env.offers.ListByRequest(ctx, reqID, 20, 0)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	accepted, rejected := 0, 0
	for _, o := range all {
		switch o.Status {
		case offer.StatusAccepted:
			accepted++
			if o.ID != winner.ID {
				t.Fatalf("wrong offer accepted: %s", o.ID)
			}
		case offer.StatusRejected:
			rejected++
		default:
			t.Fatalf("offer %s left in %s", o.ID, o.Status)
		}
	}
	if accepted != 1 || rejected != 2 {
		t.Fatalf("accepted=%d rejected=%d, want 1 and 2", accepted, rejected)
	}
}

func TestArbitrateOfferMismatch(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, nil)
	reqA, _ := seedRequestWithOffers(t, env, "200")
	_, offersB := seedRequestWithOffers(t, env, "180")

	_, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqA,
		OfferID:   offersB[0].ID,
		AdminID:   "admin-1",
	})
	if !errors.Is(err, ErrOfferMismatch) {
		t.Fatalf("got %v, want ErrOfferMismatch", err)
	}
}

func TestArbitrateTwiceRejected(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, nil)
	reqID, offers := seedRequestWithOffers(t, env, "200", "190")

	if _, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqID, OfferID: offers[0].ID, AdminID: "admin-1",
	}); err != nil {
		t.Fatalf("first arbitrate: %v", err)
	}

	// The losing offer is no longer pending.
	_, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqID, OfferID: offers[1].ID, AdminID: "admin-2",
	})
	if err == nil {
		t.Fatal("second arbitration succeeded; exclusivity broken")
	}

	// The request keeps the first decision.
	r, err := env.requests.Get(ctx, reqID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.SelectedOfferID == nil || *r.SelectedOfferID != offers[0].ID {
		t.Fatalf("selected offer = %v, want %s", r.SelectedOfferID, offers[0].ID)
	}
}

func TestConcurrentArbitrationSingleWinner(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, nil)
	reqID, offers := seedRequestWithOffers(t, env, "200", "190", "185", "210")

	var wg sync.WaitGroup
	errs := make(chan error, len(offers))

	for i, o := range offers {
		adminID := types.ID(fmt.Sprintf("admin-%d", i))
		wg.Add(1)
		go func(offerID, admin types.ID) {
			defer wg.Done()
			_, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
				RequestID: reqID,
				OfferID:   offerID,
				AdminID:   admin,
			})
			errs <- err
		}(o.ID, adminID)
	}

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		switch {
		case errors.Is(err, request.ErrConflict):
		case errors.Is(err, request.ErrInvalidTransition):
		case errors.Is(err, offer.ErrRequestNotOpen):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 winning arbitration, got %d", success)
	}

	r, err := env.requests.Get(ctx, reqID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.Status != request.StatusAccepted || r.SelectedOfferID == nil {
		t.Fatalf("request not settled: status=%s selected=%v", r.Status, r.SelectedOfferID)
	}

	a, err := env.arbitration.Assignment(ctx, reqID)
	if err != nil {
		t.Fatalf("assignment: %v", err)
	}
	if !r.FinalPrice.Equal(a.Price) {
		t.Fatalf("assignment price %s differs from final price %s", a.Price, r.FinalPrice)
	}

	all, err := env.offers.ListByRequest(ctx, reqID, 20, 0)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	accepted := 0
	for _, o := range all {
		if o.Status == offer.StatusAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("%d offers accepted, want 1", accepted)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, nil)
	reqID, offers := seedRequestWithOffers(t, env, "175")

	first, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqID, OfferID: offers[0].ID, AdminID: "admin-1",
	})
	if err != nil {
		t.Fatalf("arbitrate: %v", err)
	}

	// Reconcile after a completed arbitration re-runs the idempotent tail and
	// lands on the same assignment.
	again, err := env.arbitration.Reconcile(ctx, reqID, "admin-2")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("reconcile produced assignment %s, first run produced %s", again.ID, first.ID)
	}
}

func TestReconcileWithoutSelection(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, nil)
	reqID, _ := seedRequestWithOffers(t, env, "175")

	_, err := env.arbitration.Reconcile(ctx, reqID, "admin-1")
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("got %v, want ErrAssignmentNotFound", err)
	}
}

// stubClaimer drives the attempt fast path without Redis.
type stubClaimer struct {
	allow    bool
	fail     bool
	released int
}

func (c *stubClaimer) Claim(ctx context.Context, requestID types.ID, attemptID string) (bool, error) {
	if c.fail {
		return false, errors.New("claimer unavailable")
	}
	return c.allow, nil
}

func (c *stubClaimer) Release(ctx context.Context, requestID types.ID, attemptID string) error {
	c.released++
	return nil
}

func TestClaimDeniedShortCircuits(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, &stubClaimer{allow: false})
	reqID, offers := seedRequestWithOffers(t, env, "160")

	_, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqID, OfferID: offers[0].ID, AdminID: "admin-1",
	})
	if !errors.Is(err, request.ErrConflict) {
		t.Fatalf("got %v, want request.ErrConflict", err)
	}

	// The denied claim must leave the request untouched.
	r, err := env.requests.Get(ctx, reqID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if r.Status != request.StatusPending {
		t.Fatalf("request status = %s, want pending", r.Status)
	}
}

func TestClaimFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t, &stubClaimer{fail: true})
	reqID, offers := seedRequestWithOffers(t, env, "160")

	// An unavailable claimer degrades to the database guard alone.
	a, err := env.arbitration.Arbitrate(ctx, ArbitrateCommand{
		RequestID: reqID, OfferID: offers[0].ID, AdminID: "admin-1",
	})
	if err != nil {
		t.Fatalf("arbitrate with failing claimer: %v", err)
	}
	if a.RequestID != reqID {
		t.Fatalf("unexpected assignment: %+v", a)
	}
}
