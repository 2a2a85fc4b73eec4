package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeEscrow struct {
	enabled    bool
	holds      int
	captured   []string
	cancelled  []string
	holdErr    error
	captureErr error
	cancelErr  error
	onCancel   func(holdID string)
}

func (f *fakeEscrow) Enabled() bool { return f.enabled }

func (f *fakeEscrow) Hold(ctx context.Context, amount int64, meta HoldMetadata) (*Hold, error) {
	if f.holdErr != nil {
		return nil, f.holdErr
	}
	f.holds++
	id := fmt.Sprintf("pi_%d", f.holds)
	return &Hold{ID: id, ClientSecret: id + "_secret"}, nil
}

func (f *fakeEscrow) Capture(ctx context.Context, holdID string) error {
	if f.captureErr != nil {
		return f.captureErr
	}
	f.captured = append(f.captured, holdID)
	return nil
}

func (f *fakeEscrow) Cancel(ctx context.Context, holdID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	if f.onCancel != nil {
		f.onCancel(holdID)
	}
	f.cancelled = append(f.cancelled, holdID)
	return nil
}

type testEnv struct {
	ctx       context.Context
	store     *store.MemoryStore
	escrow    *fakeEscrow
	fraud     *FraudService
	directory *DirectoryService
	matches   *MatchService
	disputes  *DisputeService
}

func newTestEnv(t *testing.T, escrowEnabled bool) *testEnv {
	t.Helper()
	clock := func() time.Time { return testNow }
	log := logger.NewNop()
	st := store.NewMemoryStore().WithClock(clock)
	escrow := &fakeEscrow{enabled: escrowEnabled}
	appLog := NewAppLog(st, log, nil)
	fraud := NewFraudService(st, st, log, nil).WithClock(clock)

	return &testEnv{
		ctx:       context.Background(),
		store:     st,
		escrow:    escrow,
		fraud:     fraud,
		directory: NewDirectoryService(st, st, st, log),
		matches:   NewMatchService(st, fraud, escrow, nil, appLog, log, nil, "inr").WithClock(clock),
		disputes:  NewDisputeService(st, escrow, nil, appLog, log, nil, "inr").WithClock(clock),
	}
}

func (e *testEnv) user(t *testing.T, email string, fn func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{
		BaseModel: models.BaseModel{CreatedAt: testNow.AddDate(0, -2, 0)},
		Email:     email,
		FullName:  "Test " + email,
		Phone:     "+91-9876543210",
	}
	if fn != nil {
		fn(u)
	}
	u.TrustScore = TrustScore(u)
	if err := e.store.SaveUser(e.ctx, u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return u
}

// seller qualifies for auto-accept; buyer passes the fraud check.
func (e *testEnv) parties(t *testing.T) (seller, buyer *models.User) {
	t.Helper()
	seller = e.user(t, "seller@example.com", func(u *models.User) {
		u.Verified = true
		u.MatchHistoryCount = 2
		u.PastFlightsCount = 3
	})
	buyer = e.user(t, "buyer@example.com", func(u *models.User) {
		u.Verified = true
		u.MatchHistoryCount = 1
		u.PastFlightsCount = 1
	})
	return seller, buyer
}

func (e *testEnv) listing(t *testing.T, seller *models.User, weight int, price int64, autoAccept bool) *ListingView {
	t.Helper()
	res, err := e.directory.CreateListing(e.ctx, CreateListingInput{
		SellerID:   seller.ID,
		FlightNo:   "ai101",
		FlightDate: "2026-06-10",
		Airline:    "Air India",
		WeightKg:   weight,
		PricePerKg: price,
		AutoAccept: autoAccept,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return res.Listing
}

func (e *testEnv) acceptedMatch(t *testing.T) (*models.Match, *models.User, *models.User) {
	t.Helper()
	seller, buyer := e.parties(t)
	listing := e.listing(t, seller, 15, 500, false)
	res, err := e.matches.Create(e.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 10})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if _, err := e.matches.Accept(e.ctx, res.Match.ID, seller.ID); err != nil {
		t.Fatalf("accept match: %v", err)
	}
	return e.reload(t, res.Match.ID), seller, buyer
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *models.Match {
	t.Helper()
	m, err := e.store.GetMatch(e.ctx, id)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	return m
}

func (e *testEnv) mustUser(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	u, err := e.store.GetUser(e.ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u
}

func assertKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected service error of kind %s, got %v", kind, err)
	}
	if svcErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, svcErr.Kind, svcErr.Message)
	}
	return svcErr
}
