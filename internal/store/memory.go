package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/models"
)

// MemoryStore is an in-process Store used when no datastore is configured, and in tests.
// Entities are copied on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[uuid.UUID]models.User
	flights  map[uuid.UUID]models.Flight
	listings map[uuid.UUID]models.Listing
	matches  map[uuid.UUID]models.Match
	disputes map[uuid.UUID]models.Dispute
	flags    []models.FraudFlag
	logs     []models.AppLog
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		users:    make(map[uuid.UUID]models.User),
		flights:  make(map[uuid.UUID]models.Flight),
		listings: make(map[uuid.UUID]models.Listing),
		matches:  make(map[uuid.UUID]models.Match),
		disputes: make(map[uuid.UUID]models.Dispute),
	}
}

// WithClock overrides the timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) stamp(b *models.BaseModel) {
	now := s.now()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Users

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if id != user.ID && user.Email != "" && strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	s.stamp(&user.BaseModel)
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id uuid.UUID, fn func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

// Flights

func (s *MemoryStore) FindOrCreateFlight(ctx context.Context, f *models.Flight) (*models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.findFlightLocked(f.FlightNo, f.FlightDate); ok {
		return &existing, nil
	}
	created := *f
	s.stamp(&created.BaseModel)
	s.flights[created.ID] = created
	return &created, nil
}

func (s *MemoryStore) FindFlight(ctx context.Context, flightNo string, date time.Time) (*models.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.findFlightLocked(flightNo, date); ok {
		return &f, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) findFlightLocked(flightNo string, date time.Time) (models.Flight, bool) {
	for _, f := range s.flights {
		if f.FlightNo == flightNo && f.FlightDate.Equal(date) {
			return f, true
		}
	}
	return models.Flight{}, false
}

// Listings

func (s *MemoryStore) CreateListing(ctx context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&l.BaseModel)
	stored := *l
	stored.Seller, stored.Flight = nil, nil
	s.listings[l.ID] = stored
	return nil
}

func (s *MemoryStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.hydrateListingLocked(l), nil
}

func (s *MemoryStore) ListListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Listing, 0)
	for _, l := range s.listings {
		if filter.ActiveOnly && !l.Active {
			continue
		}
		if filter.FlightID != nil && l.FlightID != *filter.FlightID {
			continue
		}
		if filter.SellerID != nil && l.SellerID != *filter.SellerID {
			continue
		}
		out = append(out, *s.hydrateListingLocked(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) SetListingActive(ctx context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Active = active
	l.UpdatedAt = s.now()
	s.listings[id] = l
	return nil
}

func (s *MemoryStore) hydrateListingLocked(l models.Listing) *models.Listing {
	if u, ok := s.users[l.SellerID]; ok {
		l.Seller = &u
	}
	if f, ok := s.flights[l.FlightID]; ok {
		l.Flight = &f
	}
	return &l
}

// Matches

func (s *MemoryStore) CreateMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.matches[m.ID]; exists && m.ID != uuid.Nil {
		return ErrDuplicate
	}
	s.stamp(&m.BaseModel)
	stored := *m
	stored.Listing, stored.Buyer = nil, nil
	stored.FraudFlags = append([]string(nil), m.FraudFlags...)
	s.matches[m.ID] = stored
	return nil
}

func (s *MemoryStore) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.hydrateMatchLocked(m), nil
}

func (s *MemoryStore) FindMatchByPaymentIntent(ctx context.Context, intentID string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.matches {
		if intentID != "" && m.PaymentIntentID == intentID {
			return s.hydrateMatchLocked(m), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListMatches(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, 0)
	for _, m := range s.matches {
		seller := s.listings[m.ListingID].SellerID
		if filter.BuyerID != nil && m.BuyerID != *filter.BuyerID {
			continue
		}
		if filter.SellerID != nil && seller != *filter.SellerID {
			continue
		}
		if filter.ParticipantID != nil && m.BuyerID != *filter.ParticipantID && seller != *filter.ParticipantID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, *s.hydrateMatchLocked(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *MemoryStore) CountMatchesByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.matches {
		if m.BuyerID == buyerID && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) TransitionMatch(ctx context.Context, id uuid.UUID, t Transition) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !t.Allows(m.Status) {
		return nil, ErrStatusConflict
	}
	m.Status = t.To
	if t.Apply != nil {
		t.Apply(&m)
	}
	m.UpdatedAt = s.now()
	s.matches[id] = m
	return s.hydrateMatchLocked(m), nil
}

func (s *MemoryStore) ForceMatchStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	if m.Status.Terminal() {
		return ErrStatusConflict
	}
	m.Status = status
	m.UpdatedAt = s.now()
	s.matches[id] = m
	return nil
}

func (s *MemoryStore) hydrateMatchLocked(m models.Match) *models.Match {
	m.FraudFlags = append([]string(nil), m.FraudFlags...)
	if l, ok := s.listings[m.ListingID]; ok {
		m.Listing = s.hydrateListingLocked(l)
	}
	if u, ok := s.users[m.BuyerID]; ok {
		m.Buyer = &u
	}
	return &m
}

// Disputes

func (s *MemoryStore) CreateDispute(ctx context.Context, d *models.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.disputes {
		if existing.MatchID == d.MatchID {
			return ErrDuplicate
		}
	}
	s.stamp(&d.BaseModel)
	s.disputes[d.ID] = *d
	return nil
}

func (s *MemoryStore) GetDisputeByMatch(ctx context.Context, matchID uuid.UUID) (*models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.disputes {
		if d.MatchID == matchID {
			d := d
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListDisputesByMatches(ctx context.Context, matchIDs []uuid.UUID) ([]models.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[uuid.UUID]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = struct{}{}
	}
	out := make([]models.Dispute, 0)
	for _, d := range s.disputes {
		if _, ok := wanted[d.MatchID]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveDispute(ctx context.Context, d *models.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disputes[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = s.now()
	s.disputes[d.ID] = *d
	return nil
}

// Fraud flags

func (s *MemoryStore) CreateFraudFlag(ctx context.Context, f *models.FraudFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&f.BaseModel)
	s.flags = append(s.flags, *f)
	return nil
}

func (s *MemoryStore) ListFraudFlags(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.FraudFlag, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FraudFlag, 0)
	for i := len(s.flags) - 1; i >= 0; i-- {
		f := s.flags[i]
		if userID != nil && f.UserID != *userID {
			continue
		}
		out = append(out, f)
	}
	return paginate(out, limit, offset), int64(len(out)), nil
}

// Logs

func (s *MemoryStore) CreateLog(ctx context.Context, l *models.AppLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&l.BaseModel)
	s.logs = append(s.logs, *l)
	return nil
}

// Logs returns a copy of the recorded application log entries.
func (s *MemoryStore) Logs() []models.AppLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AppLog(nil), s.logs...)
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		TotalUsers:   int64(len(s.users)),
		TotalMatches: int64(len(s.matches)),
		FraudFlags:   int64(len(s.flags)),
	}
	for _, l := range s.listings {
		if l.Active {
			st.ActiveListings++
		}
	}
	for _, m := range s.matches {
		switch m.Status {
		case models.MatchDisputed:
			st.DisputedMatches++
		case models.MatchReleased:
			st.CompletedMatches++
			st.RevenueCents += m.TotalAmount
		}
	}
	return st, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
