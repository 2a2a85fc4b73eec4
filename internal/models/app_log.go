package models

const (
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

// AppLog is an application event kept for later inspection.
type AppLog struct {
	BaseModel
	Level   string `gorm:"index" json:"level"`
	Message string `json:"message"`
	Payload []byte `gorm:"type:jsonb" json:"-"`
}

// TableName matches the hosted datastore's log table.
func (AppLog) TableName() string {
	return "logs"
}
