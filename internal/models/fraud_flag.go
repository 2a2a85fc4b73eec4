package models

import "github.com/google/uuid"

const (
	FlagRapidRequests     = "RAPID_REQUESTS"
	FlagNewUserHighVolume = "NEW_USER_HIGH_VOLUME"
	FlagSuspiciousPattern = "SUSPICIOUS_PATTERN"
	FlagDisputeReported   = "DISPUTE_REPORTED"
)

// FraudFlag is an append-only audit entry for manual review.
type FraudFlag struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	FlagType string    `gorm:"index;not null" json:"flag_type"`
	Details  []byte    `gorm:"type:jsonb" json:"-"`
}
