package models

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputePending  DisputeStatus = "PENDING"
	DisputeResolved DisputeStatus = "RESOLVED"
)

// Dispute is opened by a participant when a match goes wrong and closed by an admin.
type Dispute struct {
	BaseModel
	MatchID    uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"match_id"`
	ReporterID uuid.UUID     `gorm:"type:uuid;index" json:"reporter_id"`
	Reason     string        `json:"reason"`
	Details    string        `gorm:"type:text" json:"details,omitempty"`
	Status     DisputeStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	Resolution string        `json:"resolution,omitempty"`
	AdminNotes string        `gorm:"type:text" json:"admin_notes,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}
