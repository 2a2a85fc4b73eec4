package models

import "github.com/google/uuid"

// Listing is a seller's offer of spare baggage allowance on a flight.
// PricePerKg is in minor currency units.
type Listing struct {
	BaseModel
	SellerID   uuid.UUID `gorm:"type:uuid;index;not null" json:"seller_id"`
	Seller     *User     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	FlightID   uuid.UUID `gorm:"type:uuid;index;not null" json:"flight_id"`
	Flight     *Flight   `json:"flight,omitempty"`
	WeightKg   int       `json:"weight_kg"`
	PricePerKg int64     `json:"price_per_kg"`
	AutoAccept bool      `json:"auto_accept"`
	Active     bool      `gorm:"index" json:"active"`
}
