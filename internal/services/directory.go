package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

// DirectoryService maintains flights and listings.
type DirectoryService struct {
	users    store.UserStore
	flights  store.FlightStore
	listings store.ListingStore
	log      logger.Logger
}

// NewDirectoryService creates a DirectoryService.
func NewDirectoryService(users store.UserStore, flights store.FlightStore, listings store.ListingStore, log logger.Logger) *DirectoryService {
	return &DirectoryService{users: users, flights: flights, listings: listings, log: log}
}

// NormalizeFlight upper-cases the flight number and parses the date.
func NormalizeFlight(flightNo, flightDate string) (string, time.Time, error) {
	flightNo = strings.ToUpper(strings.TrimSpace(flightNo))
	if flightNo == "" {
		return "", time.Time{}, validationError("flightNo is required")
	}
	date, err := time.Parse(models.FlightDateLayout, strings.TrimSpace(flightDate))
	if err != nil {
		return "", time.Time{}, validationError("flightDate must be formatted as YYYY-MM-DD")
	}
	return flightNo, date, nil
}

// FindOrCreateFlight returns the flight for (flightNo, date), creating it on first use.
func (s *DirectoryService) FindOrCreateFlight(ctx context.Context, flightNo, flightDate, airline string) (*models.Flight, error) {
	no, date, err := NormalizeFlight(flightNo, flightDate)
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.FindOrCreateFlight(ctx, &models.Flight{
		FlightNo:   no,
		FlightDate: date,
		Airline:    strings.TrimSpace(airline),
	})
	if err != nil {
		return nil, upstreamError("failed to create flight record", err)
	}
	return flight, nil
}

// CreateListingInput is a seller's listing request.
type CreateListingInput struct {
	SellerID   uuid.UUID
	FlightNo   string
	FlightDate string
	Airline    string
	WeightKg   int
	PricePerKg int64
	AutoAccept bool
}

// CreateListingResult reports whether auto-accept was downgraded.
type CreateListingResult struct {
	Listing            *ListingView
	AutoAcceptAdjusted bool
	UserTrustScore     int
}

// CreateListing validates and stores a listing. Auto-accept only takes effect for
// sellers that qualify for it.
func (s *DirectoryService) CreateListing(ctx context.Context, in CreateListingInput) (*CreateListingResult, error) {
	if in.SellerID == uuid.Nil || strings.TrimSpace(in.FlightNo) == "" || strings.TrimSpace(in.FlightDate) == "" {
		return nil, validationError("Missing required fields")
	}
	if in.WeightKg <= 0 || in.PricePerKg <= 0 {
		return nil, validationError("weightKg and pricePerKg must be positive")
	}

	seller, err := s.users.GetUser(ctx, in.SellerID)
	if err != nil {
		return nil, storeError("User", err)
	}
	if seller.Suspended {
		return nil, forbiddenError("Account is suspended")
	}

	finalAutoAccept := in.AutoAccept && CanAutoAccept(seller)
	if in.AutoAccept && !finalAutoAccept {
		s.log.Info("auto-accept requested by ineligible seller, defaulting to manual", "seller_id", seller.ID)
	}

	flight, err := s.FindOrCreateFlight(ctx, in.FlightNo, in.FlightDate, in.Airline)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		SellerID:   seller.ID,
		FlightID:   flight.ID,
		WeightKg:   in.WeightKg,
		PricePerKg: in.PricePerKg,
		AutoAccept: finalAutoAccept,
		Active:     true,
	}
	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return nil, upstreamError("Failed to create listing", err)
	}
	listing.Seller = seller
	listing.Flight = flight

	return &CreateListingResult{
		Listing:            NewListingView(listing, seller.ID),
		AutoAcceptAdjusted: in.AutoAccept != finalAutoAccept,
		UserTrustScore:     TrustScore(seller),
	}, nil
}

// ListingQuery filters ListListings. FlightNo and FlightDate apply only together.
type ListingQuery struct {
	FlightNo   string
	FlightDate string
	SellerID   *uuid.UUID
	ViewerID   uuid.UUID
}

// ListListings returns active listings, newest first, with seller contact masked
// unless the viewer is the seller.
func (s *DirectoryService) ListListings(ctx context.Context, q ListingQuery) ([]ListingView, error) {
	filter := store.ListingFilter{ActiveOnly: true, SellerID: q.SellerID}

	if q.FlightNo != "" && q.FlightDate != "" {
		no, date, err := NormalizeFlight(q.FlightNo, q.FlightDate)
		if err != nil {
			return nil, err
		}
		flight, err := s.flights.FindFlight(ctx, no, date)
		if errors.Is(err, store.ErrNotFound) {
			return []ListingView{}, nil
		}
		if err != nil {
			return nil, upstreamError("failed to load flight", err)
		}
		filter.FlightID = &flight.ID
	}

	listings, err := s.listings.ListListings(ctx, filter)
	if err != nil {
		return nil, upstreamError("Failed to fetch listings", err)
	}

	views := make([]ListingView, 0, len(listings))
	for i := range listings {
		views = append(views, *NewListingView(&listings[i], q.ViewerID))
	}
	return views, nil
}

// DeactivateListing withdraws a listing. Only its seller may do so.
func (s *DirectoryService) DeactivateListing(ctx context.Context, listingID, actorID uuid.UUID) (*ListingView, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, storeError("Listing", err)
	}
	if listing.SellerID != actorID {
		return nil, forbiddenError("Only the seller can deactivate this listing")
	}
	if err := s.listings.SetListingActive(ctx, listingID, false); err != nil {
		return nil, upstreamError("Failed to deactivate listing", err)
	}
	listing.Active = false
	return NewListingView(listing, actorID), nil
}

// ListingView is a listing as presented to a particular viewer.
type ListingView struct {
	models.Listing
	Seller *ContactInfo `json:"seller,omitempty"`
}

// NewListingView masks the seller unless viewerID owns the listing.
func NewListingView(l *models.Listing, viewerID uuid.UUID) *ListingView {
	view := &ListingView{Listing: *l}
	view.Listing.Seller = nil
	if l.Seller != nil {
		if viewerID != uuid.Nil && viewerID == l.SellerID {
			view.Seller = FullContact(l.Seller)
		} else {
			view.Seller = MaskContact(l.Seller)
		}
	}
	return view
}
