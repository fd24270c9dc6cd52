package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// WebhookFailure records a webhook delivery that ended in an internal error,
// kept for manual inspection since the provider's redelivery is not under our control.
type WebhookFailure struct {
	ID          uint           `gorm:"primaryKey"`
	CreatedAt   time.Time      // Automatically set by GORM
	EventType   string         `gorm:"index;not null"`
	CallID      string         `gorm:"index"`
	TenantID    string         `gorm:"index"`
	PhoneNumber string         // Destination number from the payload, if any
	StatusCode  int            // Status returned to the provider
	LastError   string         `gorm:"type:text"`
	Payload     datatypes.JSON // The raw webhook body
	Resolved    bool           `gorm:"index;default:false"`
	ResolvedAt  *time.Time     `gorm:"index"`
	Notes       string         `gorm:"type:text"`
}

// TableName specifies the table name for the WebhookFailure model, respecting the Namer.
func (WebhookFailure) TableName(namer schema.Namer) string {
	return namer.TableName("webhook_failures")
}
