package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

// ProfileService keeps traveler profiles in sync with the auth provider.
type ProfileService struct {
	users  store.UserStore
	appLog *AppLog
	log    logger.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(users store.UserStore, appLog *AppLog, log logger.Logger) *ProfileService {
	return &ProfileService{users: users, appLog: appLog, log: log}
}

// AuthUser is the auth provider's user payload.
type AuthUser struct {
	ID               uuid.UUID      `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// Sync upserts the profile for u. An email already owned by another id is rejected.
// Counters of an existing profile are kept.
func (s *ProfileService) Sync(ctx context.Context, u AuthUser) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if u.ID == uuid.Nil || email == "" {
		return nil, validationError("Missing user data")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != u.ID:
		s.log.Warn("duplicate email on profile sync", "email", email, "existing_id", existing.ID, "new_id", u.ID)
		return nil, &Error{
			Kind:    KindDuplicate,
			Message: "An account with this email already exists. Please sign in with your original provider or contact support.",
			Data:    map[string]any{"code": "DUPLICATE_EMAIL", "existingAccountId": existing.ID},
		}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, upstreamError("Failed to check for existing accounts", err)
	}

	profile, err := s.users.GetUser(ctx, u.ID)
	if errors.Is(err, store.ErrNotFound) {
		profile = &models.User{BaseModel: models.BaseModel{ID: u.ID}}
	} else if err != nil {
		return nil, upstreamError("Failed to load profile", err)
	}

	profile.Email = email
	profile.Verified = u.EmailConfirmedAt != ""
	if name := metadataString(u.UserMetadata, "full_name", "name", "display_name"); name != "" {
		profile.FullName = name
	}
	if avatar := metadataString(u.UserMetadata, "avatar_url", "picture"); avatar != "" {
		profile.AvatarURL = avatar
	}
	if phone := metadataString(u.UserMetadata, "phone"); phone != "" {
		profile.Phone = phone
	}
	profile.TrustScore = TrustScore(profile)

	if err := s.users.SaveUser(ctx, profile); err != nil {
		s.appLog.Error(ctx, "profile upsert failed", map[string]any{"user_id": u.ID, "error": err.Error()})
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &Error{Kind: KindDuplicate, Message: "An account with this email already exists.", Data: map[string]any{"code": "DUPLICATE_EMAIL"}}
		}
		return nil, upstreamError("Failed to sync profile", err)
	}
	return profile, nil
}

func metadataString(meta map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := meta[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError("User", err)
	}
	return user, nil
}

// ProfileUpdate holds the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// Update edits the caller's own profile.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	user, err := s.users.UpdateUser(ctx, userID, func(u *models.User) {
		if in.FullName != nil {
			u.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Phone != nil {
			u.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.AvatarURL != nil {
			u.AvatarURL = strings.TrimSpace(*in.AvatarURL)
		}
	})
	if err != nil {
		return nil, storeError("User", err)
	}
	return user, nil
}
