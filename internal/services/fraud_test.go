package services

import (
	"slices"
	"testing"
	"time"

	"github.com/example/bagswap/internal/models"
)

func TestFraudCheckNewBuyerRequiresReview(t *testing.T) {
	env := newTestEnv(t, false)
	buyer := env.user(t, "new@example.com", func(u *models.User) {
		u.CreatedAt = testNow.Add(-time.Hour)
	})

	got := env.fraud.PerformFraudCheck(env.ctx, buyer, IntentBuy)
	if !got.RequiresManualReview {
		t.Fatal("expected manual review")
	}
	if !slices.Contains(got.Flags, CheckNewUser) || !slices.Contains(got.Flags, CheckInsufficientFlightHistory) {
		t.Fatalf("unexpected flags %v", got.Flags)
	}
	if got.Allowed {
		t.Fatal("zero trust user must not pass review")
	}
}

func TestFraudCheckSellIntentDoesNotForceReview(t *testing.T) {
	env := newTestEnv(t, false)
	seller := env.user(t, "new@example.com", func(u *models.User) {
		u.CreatedAt = testNow.AddDate(0, 0, -1)
	})

	got := env.fraud.PerformFraudCheck(env.ctx, seller, IntentSell)
	if got.RequiresManualReview || !got.Allowed {
		t.Fatalf("unexpected verdict %+v", got)
	}
	if !slices.Equal(got.Flags, []string{CheckNewUser}) {
		t.Fatalf("unexpected flags %v", got.Flags)
	}
}

func TestFraudCheckTrustedUserOverridesReview(t *testing.T) {
	env := newTestEnv(t, false)
	buyer := env.user(t, "trusted@example.com", func(u *models.User) {
		u.Verified = true
		u.MatchHistoryCount = 2
	})

	got := env.fraud.PerformFraudCheck(env.ctx, buyer, IntentBuy)
	if !got.RequiresManualReview {
		t.Fatal("buyer without flights still requires review")
	}
	if !got.Allowed || got.TrustScore != 40 {
		t.Fatalf("expected override with score 40, got %+v", got)
	}
}

func TestFraudCheckRapidRequestsWritesFlag(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 20, 100, false)
	for i := 0; i < 3; i++ {
		if _, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1}); err != nil {
			t.Fatalf("create match %d: %v", i, err)
		}
	}

	got := env.fraud.PerformFraudCheck(env.ctx, buyer, IntentBuy)
	if !slices.Contains(got.Flags, CheckRapidRequests) || !got.RequiresManualReview {
		t.Fatalf("expected rapid request flag, got %+v", got)
	}

	flags, total, err := env.store.ListFraudFlags(env.ctx, &buyer.ID, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || flags[0].FlagType != models.FlagRapidRequests {
		t.Fatalf("expected one RAPID_REQUESTS flag, got %d", total)
	}
}
