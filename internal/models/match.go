package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MatchStatus is the lifecycle state of a booking request.
type MatchStatus string

const (
	MatchPending   MatchStatus = "PENDING"
	MatchAccepted  MatchStatus = "ACCEPTED"
	MatchConfirmed MatchStatus = "CONFIRMED"
	MatchReleased  MatchStatus = "RELEASED"
	MatchDisputed  MatchStatus = "DISPUTED"
	MatchCancelled MatchStatus = "CANCELLED"
)

func (s MatchStatus) String() string {
	return string(s)
}

// TerminalMatchStatuses are the statuses no transition may leave.
var TerminalMatchStatuses = []MatchStatus{MatchReleased, MatchCancelled}

// Terminal reports whether no further transition may leave the status.
func (s MatchStatus) Terminal() bool {
	for _, t := range TerminalMatchStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Match is a buyer's request against a listing. Rows are never deleted.
type Match struct {
	BaseModel
	ListingID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"listing_id"`
	Listing          *Listing       `json:"listing,omitempty"`
	BuyerID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"buyer_id"`
	Buyer            *User          `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	QuantityKg       int            `json:"quantity_kg"`
	TotalAmount      int64          `json:"total_amount"`
	Status           MatchStatus    `gorm:"type:varchar(16);index;not null" json:"status"`
	PaymentIntentID  string         `gorm:"index" json:"payment_intent_id,omitempty"`
	QRToken          string         `json:"-"`
	FraudFlags       pq.StringArray `gorm:"type:text[]" json:"fraud_flags"`
	ConfirmationType string         `json:"confirmation_type,omitempty"`
	AcceptedAt       *time.Time     `json:"accepted_at,omitempty"`
	ConfirmedAt      *time.Time     `json:"confirmed_at,omitempty"`
	ConfirmedBy      *uuid.UUID     `gorm:"type:uuid" json:"confirmed_by,omitempty"`
}

// SellerID returns the listing owner when the listing is loaded.
func (m *Match) SellerID() uuid.UUID {
	if m.Listing == nil {
		return uuid.Nil
	}
	return m.Listing.SellerID
}

// IsParticipant reports whether userID is the buyer or the listing's seller.
func (m *Match) IsParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (m.BuyerID == userID || m.SellerID() == userID)
}
