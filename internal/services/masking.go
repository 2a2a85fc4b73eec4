package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/models"
)

// ContactInfo is the projection of a user shown to other marketplace participants.
type ContactInfo struct {
	ID                uuid.UUID `json:"id"`
	FullName          string    `json:"full_name,omitempty"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	Verified          bool      `json:"verified"`
	TrustScore        int       `json:"trust_score"`
	MatchHistoryCount int       `json:"match_history_count"`
}

// FullContact returns unredacted contact details, revealed once a match is accepted.
func FullContact(u *models.User) *ContactInfo {
	if u == nil {
		return nil
	}
	return &ContactInfo{
		ID:                u.ID,
		FullName:          u.FullName,
		Email:             u.Email,
		Phone:             u.Phone,
		AvatarURL:         u.AvatarURL,
		Verified:          u.Verified,
		TrustScore:        u.TrustScore,
		MatchHistoryCount: u.MatchHistoryCount,
	}
}

// MaskContact returns a redacted projection for viewers who are not yet matched.
func MaskContact(u *models.User) *ContactInfo {
	if u == nil {
		return nil
	}
	info := &ContactInfo{
		ID:                u.ID,
		Email:             maskEmail(u.Email),
		Verified:          u.Verified,
		TrustScore:        u.TrustScore,
		MatchHistoryCount: u.MatchHistoryCount,
	}
	if u.FullName != "" {
		info.FullName = maskName(u.FullName)
	}
	if u.Phone != "" {
		info.Phone = maskPhone(u.Phone)
	}
	return info
}

// maskName turns "John Doe" into "J. D*****".
func maskName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	first := []rune(parts[0])
	if len(parts) == 1 {
		return string(first[0]) + "*****"
	}
	last := []rune(parts[len(parts)-1])
	return string(first[0]) + ". " + string(last[0]) + "*****"
}

// maskEmail turns "john@example.com" into "j****@example.com".
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "****"
	}
	return string([]rune(local)[0]) + "****@" + domain
}

func maskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 6 {
		return "xxxxxx"
	}
	return string(runes[:6]) + "xxxxxx"
}
