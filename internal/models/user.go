package models

// User is a traveler profile synced from the auth provider.
// Counters are only mutated by match completion; users are suspended, never deleted.
type User struct {
	BaseModel
	Email             string `gorm:"uniqueIndex" json:"email"`
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
	AvatarURL         string `json:"avatar_url"`
	Verified          bool   `json:"verified"`
	Suspended         bool   `json:"suspended"`
	SuspendedReason   string `json:"suspended_reason,omitempty"`
	MatchHistoryCount int    `json:"match_history_count"`
	PastFlightsCount  int    `json:"past_flights_count"`
	TrustScore        int    `json:"trust_score"`
}

// TableName keeps the auth provider's profile table name.
func (User) TableName() string {
	return "profiles"
}
