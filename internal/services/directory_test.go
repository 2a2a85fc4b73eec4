package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/models"
)

func TestCreateListingAdjustsAutoAccept(t *testing.T) {
	env := newTestEnv(t, false)
	seller := env.user(t, "seller@example.com", func(u *models.User) {
		u.Verified = true
		u.MatchHistoryCount = 1
	})

	res, err := env.directory.CreateListing(env.ctx, CreateListingInput{
		SellerID:   seller.ID,
		FlightNo:   "6e203",
		FlightDate: "2026-07-01",
		WeightKg:   15,
		PricePerKg: 500,
		AutoAccept: true,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if res.Listing.AutoAccept {
		t.Fatal("auto-accept must be downgraded for a seller with one match")
	}
	if !res.AutoAcceptAdjusted {
		t.Fatal("expected autoAcceptAdjusted")
	}
	if res.UserTrustScore != 30 {
		t.Fatalf("trust score = %d, want 30", res.UserTrustScore)
	}
	if res.Listing.Flight == nil || res.Listing.Flight.FlightNo != "6E203" {
		t.Fatalf("flight number must be upper-cased, got %+v", res.Listing.Flight)
	}
}

func TestCreateListingKeepsAutoAcceptForQualifiedSeller(t *testing.T) {
	env := newTestEnv(t, false)
	seller, _ := env.parties(t)

	listing := env.listing(t, seller, 10, 300, true)
	if !listing.AutoAccept {
		t.Fatal("qualified seller must keep auto-accept")
	}
}

func TestCreateListingValidation(t *testing.T) {
	env := newTestEnv(t, false)
	seller, _ := env.parties(t)

	tests := []struct {
		name string
		in   CreateListingInput
		kind ErrorKind
	}{
		{"missing flight", CreateListingInput{SellerID: seller.ID, FlightDate: "2026-07-01", WeightKg: 1, PricePerKg: 1}, KindValidation},
		{"zero weight", CreateListingInput{SellerID: seller.ID, FlightNo: "AI1", FlightDate: "2026-07-01", PricePerKg: 1}, KindValidation},
		{"bad date", CreateListingInput{SellerID: seller.ID, FlightNo: "AI1", FlightDate: "07/01/2026", WeightKg: 1, PricePerKg: 1}, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.directory.CreateListing(env.ctx, tt.in)
			assertKind(t, err, tt.kind)
		})
	}
}

func TestCreateListingUnknownUser(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.directory.CreateListing(env.ctx, CreateListingInput{
		SellerID: uuid.New(), FlightNo: "AI1", FlightDate: "2026-07-01", WeightKg: 1, PricePerKg: 1,
	})
	assertKind(t, err, KindNotFound)
}

func TestFindOrCreateFlightReturnsSameFlight(t *testing.T) {
	env := newTestEnv(t, false)

	first, err := env.directory.FindOrCreateFlight(env.ctx, "ba118", "2026-08-15", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.directory.FindOrCreateFlight(env.ctx, "BA118", "2026-08-15", "British Airways")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one flight, got %s and %s", first.ID, second.ID)
	}
}

func TestListListingsMasksSellerForOthers(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	env.listing(t, seller, 10, 300, false)

	asBuyer, err := env.directory.ListListings(env.ctx, ListingQuery{FlightNo: "AI101", FlightDate: "2026-06-10", ViewerID: buyer.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(asBuyer) != 1 {
		t.Fatalf("expected one listing, got %d", len(asBuyer))
	}
	if asBuyer[0].Seller.Email == seller.Email {
		t.Fatal("seller email must be masked for other viewers")
	}

	asSeller, _ := env.directory.ListListings(env.ctx, ListingQuery{SellerID: &seller.ID, ViewerID: seller.ID})
	if len(asSeller) != 1 || asSeller[0].Seller.Email != seller.Email {
		t.Fatal("seller must see their own contact details")
	}

	none, err := env.directory.ListListings(env.ctx, ListingQuery{FlightNo: "XX999", FlightDate: "2026-06-10"})
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown flight must produce no listings, got %d (%v)", len(none), err)
	}
}

func TestDeactivateListingOnlyBySeller(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 10, 300, false)

	_, err := env.directory.DeactivateListing(env.ctx, listing.ID, buyer.ID)
	assertKind(t, err, KindForbidden)

	view, err := env.directory.DeactivateListing(env.ctx, listing.ID, seller.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Active {
		t.Fatal("expected inactive listing")
	}

	remaining, _ := env.directory.ListListings(env.ctx, ListingQuery{})
	if len(remaining) != 0 {
		t.Fatalf("inactive listings must not be listed, got %d", len(remaining))
	}
}
