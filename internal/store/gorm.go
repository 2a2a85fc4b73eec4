package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/bagswap/internal/models"
)

// GormStore implements Store on Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "duplicate key"):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Save(user).Error)
}

func (s *GormStore) UpdateUser(ctx context.Context, id uuid.UUID, fn func(*models.User)) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		fn(&user)
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) FindOrCreateFlight(ctx context.Context, f *models.Flight) (*models.Flight, error) {
	db := s.db.WithContext(ctx)
	candidate := *f
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return nil, translate(err)
	}
	var flight models.Flight
	if err := db.Where("flight_no = ? AND flight_date = ?", f.FlightNo, f.FlightDate).First(&flight).Error; err != nil {
		return nil, translate(err)
	}
	return &flight, nil
}

func (s *GormStore) FindFlight(ctx context.Context, flightNo string, date time.Time) (*models.Flight, error) {
	var flight models.Flight
	if err := s.db.WithContext(ctx).Where("flight_no = ? AND flight_date = ?", flightNo, date).First(&flight).Error; err != nil {
		return nil, translate(err)
	}
	return &flight, nil
}

func (s *GormStore) CreateListing(ctx context.Context, l *models.Listing) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (s *GormStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.WithContext(ctx).Preload("Seller").Preload("Flight").First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &listing, nil
}

func (s *GormStore) ListListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	query := s.db.WithContext(ctx).Model(&models.Listing{}).Preload("Seller").Preload("Flight")
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.FlightID != nil {
		query = query.Where("flight_id = ?", *filter.FlightID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}

	listings := make([]models.Listing, 0)
	if err := query.Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *GormStore) SetListingActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateMatch(ctx context.Context, m *models.Match) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (s *GormStore) preloadMatch(db *gorm.DB) *gorm.DB {
	return db.Preload("Listing").Preload("Listing.Seller").Preload("Listing.Flight").Preload("Buyer")
}

func (s *GormStore) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	if err := s.preloadMatch(s.db.WithContext(ctx)).First(&match, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

func (s *GormStore) FindMatchByPaymentIntent(ctx context.Context, intentID string) (*models.Match, error) {
	if intentID == "" {
		return nil, ErrNotFound
	}
	var match models.Match
	if err := s.preloadMatch(s.db.WithContext(ctx)).First(&match, "payment_intent_id = ?", intentID).Error; err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

func (s *GormStore) ListMatches(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	query := s.preloadMatch(s.db.WithContext(ctx).Model(&models.Match{}))
	if filter.BuyerID != nil {
		query = query.Where("matches.buyer_id = ?", *filter.BuyerID)
	}
	if filter.SellerID != nil || filter.ParticipantID != nil {
		query = query.Joins("JOIN listings ON listings.id = matches.listing_id")
	}
	if filter.SellerID != nil {
		query = query.Where("listings.seller_id = ?", *filter.SellerID)
	}
	if filter.ParticipantID != nil {
		query = query.Where("(matches.buyer_id = ? OR listings.seller_id = ?)", *filter.ParticipantID, *filter.ParticipantID)
	}
	if filter.Status != "" {
		query = query.Where("matches.status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	matches := make([]models.Match, 0)
	if err := query.Order("matches.created_at DESC").Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *GormStore) CountMatchesByBuyerSince(ctx context.Context, buyerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Match{}).
		Where("buyer_id = ? AND created_at >= ?", buyerID, since).
		Count(&count).Error
	return count, err
}

var transitionColumns = []string{
	"status", "qr_token", "accepted_at", "confirmed_at", "confirmed_by", "confirmation_type", "updated_at",
}

func (s *GormStore) TransitionMatch(ctx context.Context, id uuid.UUID, t Transition) (*models.Match, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, "id = ?", id).Error; err != nil {
			return err
		}
		if !t.Allows(match.Status) {
			return ErrStatusConflict
		}
		match.Status = t.To
		if t.Apply != nil {
			t.Apply(&match)
		}
		match.UpdatedAt = time.Now()

		res := tx.Model(&models.Match{}).
			Where("id = ? AND status IN ?", id, t.From).
			Select(transitionColumns).
			Updates(&match)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.GetMatch(ctx, id)
}

func (s *GormStore) ForceMatchStatus(ctx context.Context, id uuid.UUID, status models.MatchStatus) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Match{}).
		Where("id = ? AND status NOT IN ?", id, models.TerminalMatchStatuses).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Match{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

func (s *GormStore) CreateDispute(ctx context.Context, d *models.Dispute) error {
	return translate(s.db.WithContext(ctx).Create(d).Error)
}

func (s *GormStore) GetDisputeByMatch(ctx context.Context, matchID uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := s.db.WithContext(ctx).First(&dispute, "match_id = ?", matchID).Error; err != nil {
		return nil, translate(err)
	}
	return &dispute, nil
}

func (s *GormStore) ListDisputesByMatches(ctx context.Context, matchIDs []uuid.UUID) ([]models.Dispute, error) {
	disputes := make([]models.Dispute, 0)
	if len(matchIDs) == 0 {
		return disputes, nil
	}
	if err := s.db.WithContext(ctx).Where("match_id IN ?", matchIDs).Find(&disputes).Error; err != nil {
		return nil, err
	}
	return disputes, nil
}

func (s *GormStore) SaveDispute(ctx context.Context, d *models.Dispute) error {
	return translate(s.db.WithContext(ctx).Save(d).Error)
}

func (s *GormStore) CreateFraudFlag(ctx context.Context, f *models.FraudFlag) error {
	return s.db.WithContext(ctx).Create(f).Error
}

func (s *GormStore) ListFraudFlags(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]models.FraudFlag, int64, error) {
	byUser := func(db *gorm.DB) *gorm.DB {
		if userID != nil {
			return db.Where("user_id = ?", *userID)
		}
		return db
	}
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.FraudFlag{}).Scopes(byUser).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := db.Scopes(byUser).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	flags := make([]models.FraudFlag, 0)
	if err := query.Find(&flags).Error; err != nil {
		return nil, 0, err
	}
	return flags, total, nil
}

func (s *GormStore) CreateLog(ctx context.Context, l *models.AppLog) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Match{}).Count(&st.TotalMatches).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Listing{}).Where("active = ?", true).Count(&st.ActiveListings).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Match{}).Where("status = ?", models.MatchDisputed).Count(&st.DisputedMatches).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Match{}).Where("status = ?", models.MatchReleased).Count(&st.CompletedMatches).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Match{}).Where("status = ?", models.MatchReleased).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&st.RevenueCents).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.FraudFlag{}).Count(&st.FraudFlags).Error; err != nil {
		return st, err
	}
	return st, nil
}
