package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Call log statuses written by this service. Intermediate statuses are copied
// verbatim from the provider's status-update events.
const (
	CallStatusRinging   = "ringing"
	CallStatusRejected  = "rejected"
	CallStatusCompleted = "completed"
)

// CallLog is the persisted lifecycle of one inbound call, unique per provider call ID.
type CallLog struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	CallID        string `json:"call_id" gorm:"column:call_id;not null;uniqueIndex" validate:"required"`
	TenantID      string `json:"tenant_id" gorm:"column:tenant_id;not null;index" validate:"required"`
	VoiceConfigID uint   `json:"voice_config_id" gorm:"column:voice_config_id;index"`
	// PhoneNumber is the tenant's destination number the caller dialled.
	PhoneNumber string `json:"phone_number" gorm:"column:phone_number"`
	// CallerNumber is the customer's number, when the provider supplied it.
	CallerNumber    string         `json:"caller_number,omitempty" gorm:"column:caller_number"`
	Status          string         `json:"status" gorm:"column:status;not null;index" validate:"required"`
	DurationSeconds float64        `json:"duration_seconds" gorm:"column:duration_seconds" validate:"gte=0"`
	Cost            float64        `json:"cost" gorm:"column:cost" validate:"gte=0"`
	Transcript      string         `json:"transcript,omitempty" gorm:"column:transcript;type:text"`
	Summary         string         `json:"summary,omitempty" gorm:"column:summary;type:text"`
	StartedAt       time.Time      `json:"started_at" gorm:"column:started_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty" gorm:"column:ended_at"`
	LastPayload     datatypes.JSON `json:"last_payload,omitempty" gorm:"column:last_payload"`
	CreatedAt       time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (CallLog) TableName(namer schema.Namer) string {
	return namer.TableName("call_logs")
}

// CallCompletion carries the terminal values of an end-of-call report.
type CallCompletion struct {
	DurationSeconds float64
	Cost            float64
	Transcript      string
	Summary         string
	EndedAt         time.Time
	Payload         datatypes.JSON
}
