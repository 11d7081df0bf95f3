package models

import (
	"time"

	"gorm.io/datatypes"
)

// Generation log statuses
const (
	GenerationStatusDispatched = "dispatched"
	GenerationStatusFailed     = "failed"
	GenerationStatusDelivered  = "delivered"
)

// GenerationLog records one submission to the generation webhook
type GenerationLog struct {
	ID            string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CorrelationID string `json:"correlation_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	SessionID     string `json:"session_id" gorm:"type:varchar(64);index"`
	TenantID      string `json:"tenant_id" gorm:"type:varchar(64);index"`
	UserID        string `json:"user_id" gorm:"type:varchar(255);index"`
	Status        string `json:"status" gorm:"type:varchar(20);not null;index"` // dispatched, failed, delivered
	Shape         string `json:"shape" gorm:"type:varchar(20)"`                 // flat, wrapped
	HTTPStatus    int    `json:"http_status"`
	PayloadBytes  int    `json:"payload_bytes"`
	AssetURL      string `json:"asset_url" gorm:"type:text"`
	Error         string `json:"error" gorm:"type:text"`

	Payload datatypes.JSON `json:"payload" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the GenerationLog model
func (GenerationLog) TableName() string {
	return "generation_logs"
}
