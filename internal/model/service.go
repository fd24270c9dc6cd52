package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Service is a bookable entry in a tenant's service catalog.
type Service struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TenantID        string    `json:"tenant_id" gorm:"column:tenant_id;not null;index" validate:"required"`
	Name            string    `json:"name" gorm:"column:name;not null" validate:"required"`
	Description     string    `json:"description,omitempty" gorm:"column:description;type:text"`
	Price           float64   `json:"price" gorm:"column:price" validate:"gte=0"`
	DurationMinutes int       `json:"duration_minutes" gorm:"column:duration_minutes" validate:"gte=0"`
	Active          bool      `json:"active" gorm:"column:active;not null;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (Service) TableName(namer schema.Namer) string {
	return namer.TableName("services")
}
