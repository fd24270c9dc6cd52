package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Appointment statuses and sources.
const (
	AppointmentStatusBooked = "booked"
	AppointmentSourceVoice  = "voice_ai"
)

// Appointment is a booking created by the assistant during a call.
type Appointment struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	TenantID        string    `json:"tenant_id" gorm:"column:tenant_id;not null;index" validate:"required"`
	VoiceConfigID   uint      `json:"voice_config_id" gorm:"column:voice_config_id"`
	CallID          string    `json:"call_id,omitempty" gorm:"column:call_id;index"`
	ServiceID       *uint     `json:"service_id,omitempty" gorm:"column:service_id"`
	ServiceName     string    `json:"service_name" gorm:"column:service_name;not null" validate:"required"`
	ClientName      string    `json:"client_name" gorm:"column:client_name;not null" validate:"required"`
	ClientPhone     string    `json:"client_phone" gorm:"column:client_phone;not null" validate:"required"`
	ClientEmail     string    `json:"client_email,omitempty" gorm:"column:client_email" validate:"omitempty,email"`
	ScheduledAt     time.Time `json:"scheduled_at" gorm:"column:scheduled_at;not null;index" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" gorm:"column:duration_minutes"`
	Status          string    `json:"status" gorm:"column:status;not null"`
	Source          string    `json:"source" gorm:"column:source;not null"`
	Notes           string    `json:"notes,omitempty" gorm:"column:notes;type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (Appointment) TableName(namer schema.Namer) string {
	return namer.TableName("appointments")
}
