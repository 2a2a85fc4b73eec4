// Package store is the persistence boundary. Datastore rows are mapped to the typed entities in
// internal/models here and nowhere else.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict is returned when a match is not in any of the expected statuses.
	ErrStatusConflict = errors.New("match status changed concurrently")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// UserStore persists traveler profiles.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	// UpdateUser applies fn to the locked row and persists the result.
	UpdateUser(ctx context.Context, id uuid.UUID, fn func(*models.User)) (*models.User, error)
}

// FlightStore persists flights.
type FlightStore interface {
	// FindOrCreateFlight returns the flight keyed by (FlightNo, FlightDate), inserting f if absent.
	FindOrCreateFlight(ctx context.Context, f *models.Flight) (*models.Flight, error)
	FindFlight(ctx context.Context, flightNo string, date time.Time) (*models.Flight, error)
}

// ListingFilter narrows ListListings.
type ListingFilter struct {
	FlightID   *uuid.UUID
	SellerID   *uuid.UUID
	ActiveOnly bool
}

// ListingStore persists listings.
type ListingStore interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	// GetListing loads the listing with its seller and flight.
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error)
	SetListingActive(ctx context.Context, id uuid.UUID, active bool) error
}

// MatchFilter narrows ListMatches. ParticipantID matches buyer or seller.
type MatchFilter struct {
	BuyerID       *uuid.UUID
	SellerID      *uuid.UUID
	ParticipantID *uuid.UUID
	Status        models.MatchStatus
	Limit         int
	Offset        int
}

// Transition is a compare-and-set on a match's status.
type Transition struct {
	From []models.MatchStatus
	To   models.MatchStatus
	// Apply mutates additional fields of the match alongside the status.
	Apply func(*models.Match)
}

// Allows reports whether status is one of the expected source statuses.
func (t Transition) Allows(status models.MatchStatus) bool {
	for _, s := range t.From {
		if s == status {
			return true
		}
	}
	return false
}

// MatchStore persists matches.
type MatchStore interface {
	CreateMatch(ctx context.Context, m *models.Match) error
	// GetMatch loads the match with its listing (seller, flight) and buyer.
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	FindMatchByPaymentIntent(ctx context.Context, intentID string) (*models.Match, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]models.Match, error)
	CountMatchesByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (int64, error)
	// TransitionMatch changes status only if the current status is allowed by t,
	// returning ErrStatusConflict otherwise.
	TransitionMatch(ctx context.Context, id uuid.UUID, t Transition) (*models.Match, error)
	// ForceMatchStatus sets status regardless of the current one, except that RELEASED and
	// CANCELLED rows are left alone and reported as ErrStatusConflict. Reserved for reconciliation.
	ForceMatchStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) error
}

// DisputeStore persists disputes.
type DisputeStore interface {
	CreateDispute(ctx context.Context, d *models.Dispute) error
	GetDisputeByMatch(ctx context.Context, matchID uuid.UUID) (*models.Dispute, error)
	ListDisputesByMatches(ctx context.Context, matchIDs []uuid.UUID) ([]models.Dispute, error)
	SaveDispute(ctx context.Context, d *models.Dispute) error
}

// FraudFlagStore persists fraud flags. Flags are append-only.
type FraudFlagStore interface {
	CreateFraudFlag(ctx context.Context, f *models.FraudFlag) error
	ListFraudFlags(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.FraudFlag, int64, error)
}

// LogStore persists application log entries.
type LogStore interface {
	CreateLog(ctx context.Context, l *models.AppLog) error
}

// Stats are the aggregate counts shown on the admin dashboard.
type Stats struct {
	TotalUsers       int64
	TotalMatches     int64
	ActiveListings   int64
	DisputedMatches  int64
	CompletedMatches int64
	RevenueCents     int64
	FraudFlags       int64
}

// StatsStore computes dashboard aggregates.
type StatsStore interface {
	Stats(ctx context.Context) (Stats, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	FlightStore
	ListingStore
	MatchStore
	DisputeStore
	FraudFlagStore
	LogStore
	StatsStore
	Ping(ctx context.Context) error
}
