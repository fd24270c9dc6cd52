package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// Weekdays in the order business hours are presented to callers.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// DayHours is the opening window for one weekday. Times use the 24h "15:04" layout.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// BusinessHours maps lowercase weekday names ("monday") to their opening window.
type BusinessHours map[string]DayHours

// For returns the hours configured for a weekday and whether an entry exists.
func (b BusinessHours) For(day time.Weekday) (DayHours, bool) {
	h, ok := b[weekdayKey(day)]
	return h, ok
}

func weekdayKey(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// VoiceConfig is a tenant's voice receptionist configuration, keyed by its provisioned phone number.
type VoiceConfig struct {
	ID uint `json:"id" gorm:"primaryKey"`
	// TenantID identifies the business account that owns this number.
	TenantID string `json:"tenant_id" gorm:"column:tenant_id;not null;index" validate:"required"`
	// PhoneNumber is the provisioned destination number, stored normalized (+15551234567).
	PhoneNumber string `json:"phone_number" gorm:"column:phone_number;not null;uniqueIndex" validate:"required,e164"`
	// PhoneNumberID is the telephony provider's identifier for the number.
	PhoneNumberID       string                            `json:"phone_number_id,omitempty" gorm:"column:phone_number_id;index"`
	BusinessName        string                            `json:"business_name" gorm:"column:business_name;not null" validate:"required"`
	AssistantName       string                            `json:"assistant_name" gorm:"column:assistant_name;not null" validate:"required"`
	Greeting            string                            `json:"greeting,omitempty" gorm:"column:greeting;type:text"`
	Enabled             bool                              `json:"enabled" gorm:"column:enabled;not null"`
	BusinessHours       datatypes.JSONType[BusinessHours] `json:"business_hours" gorm:"column:business_hours"`
	BookingInstructions string                            `json:"booking_instructions,omitempty" gorm:"column:booking_instructions;type:text"`
	VoiceID             string                            `json:"voice_id,omitempty" gorm:"column:voice_id"`
	Timezone            string                            `json:"timezone,omitempty" gorm:"column:timezone"`
	// MonthlyMinutesUsed only changes through atomic increments and the monthly reset.
	MonthlyMinutesUsed int        `json:"monthly_minutes_used" gorm:"column:monthly_minutes_used;not null;default:0"`
	MinutesResetAt     *time.Time `json:"minutes_reset_at,omitempty" gorm:"column:minutes_reset_at"`
	CreatedAt          time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM, respecting the Namer.
func (VoiceConfig) TableName(namer schema.Namer) string {
	return namer.TableName("voice_configs")
}
