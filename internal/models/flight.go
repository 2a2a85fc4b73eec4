package models

import "time"

// FlightDateLayout is the wire format of flight dates.
const FlightDateLayout = "2006-01-02"

// Flight is identified by flight number and date and never changes once created.
type Flight struct {
	BaseModel
	FlightNo   string    `gorm:"uniqueIndex:idx_flight_no_date;not null" json:"flight_no"`
	FlightDate time.Time `gorm:"type:date;uniqueIndex:idx_flight_no_date;not null" json:"flight_date"`
	Airline    string    `json:"airline,omitempty"`
}
