package model

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// FakeE164 returns a random North American number in E.164 form.
func FakeE164() string {
	return "+1" + gofakeit.Numerify("##########")
}

// RandomJSONBMap generates JSON data from a map for testing.
func RandomJSONBMap(data map[string]interface{}) datatypes.JSON {
	bytes, _ := json.Marshal(data)
	return datatypes.JSON(bytes)
}

// DefaultBusinessHours is a weekday 9-5 schedule closed on weekends.
func DefaultBusinessHours() BusinessHours {
	hours := BusinessHours{}
	for _, day := range Weekdays {
		if day == time.Saturday || day == time.Sunday {
			hours[weekdayKey(day)] = DayHours{Closed: true}
			continue
		}
		hours[weekdayKey(day)] = DayHours{Open: "09:00", Close: "17:00"}
	}
	return hours
}

// NewVoiceConfig creates a new enabled VoiceConfig with default fake data.
// When an override is given its string fields replace the defaults when non-empty,
// and Enabled is always taken from the override.
func NewVoiceConfig(overrideDefaults ...*VoiceConfig) *VoiceConfig {
	base := &VoiceConfig{
		TenantID:            "tenant_" + gofakeit.LetterN(10),
		PhoneNumber:         FakeE164(),
		PhoneNumberID:       gofakeit.UUID(),
		BusinessName:        gofakeit.Company() + " Med Spa",
		AssistantName:       gofakeit.FirstName(),
		Greeting:            "how can I help you today?",
		Enabled:             true,
		BusinessHours:       datatypes.NewJSONType(DefaultBusinessHours()),
		BookingInstructions: "Collect the client's name and phone number before booking.",
		Timezone:            "America/New_York",
		CreatedAt:           utils.Now(),
		UpdatedAt:           utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != 0 {
			base.ID = ovr.ID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		if ovr.PhoneNumberID != "" {
			base.PhoneNumberID = ovr.PhoneNumberID
		}
		if ovr.BusinessName != "" {
			base.BusinessName = ovr.BusinessName
		}
		if ovr.AssistantName != "" {
			base.AssistantName = ovr.AssistantName
		}
		if ovr.Greeting != "" {
			base.Greeting = ovr.Greeting
		}
		if ovr.BookingInstructions != "" {
			base.BookingInstructions = ovr.BookingInstructions
		}
		if ovr.VoiceID != "" {
			base.VoiceID = ovr.VoiceID
		}
		if ovr.Timezone != "" {
			base.Timezone = ovr.Timezone
		}
		if ovr.BusinessHours.Data() != nil {
			base.BusinessHours = ovr.BusinessHours
		}
		base.Enabled = ovr.Enabled
		base.MonthlyMinutesUsed = ovr.MonthlyMinutesUsed
	}
	return base
}

// NewService creates a new active catalog Service with default fake data.
func NewService(overrideDefaults ...*Service) *Service {
	base := &Service{
		TenantID:        "tenant_" + gofakeit.LetterN(10),
		Name:            gofakeit.RandomString([]string{"Botox", "Hydrafacial", "Chemical Peel", "Laser Hair Removal", "Microneedling"}),
		Description:     gofakeit.Sentence(8),
		Price:           float64(gofakeit.Number(5, 60) * 10),
		DurationMinutes: gofakeit.RandomInt([]int{15, 30, 45, 60, 90}),
		Active:          true,
		CreatedAt:       utils.Now(),
		UpdatedAt:       utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Description != "" {
			base.Description = ovr.Description
		}
		if ovr.Price != 0 {
			base.Price = ovr.Price
		}
		if ovr.DurationMinutes != 0 {
			base.DurationMinutes = ovr.DurationMinutes
		}
		base.Active = ovr.Active
	}
	return base
}

// NewCallLog creates a new ringing CallLog with default fake data.
func NewCallLog(overrideDefaults ...*CallLog) *CallLog {
	base := &CallLog{
		CallID:       gofakeit.UUID(),
		TenantID:     "tenant_" + gofakeit.LetterN(10),
		PhoneNumber:  FakeE164(),
		CallerNumber: FakeE164(),
		Status:       CallStatusRinging,
		StartedAt:    utils.Now().Add(-time.Duration(gofakeit.Number(1, 30)) * time.Minute),
		LastPayload:  RandomJSONBMap(map[string]interface{}{"type": string(EventAssistantRequest)}),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.CallID != "" {
			base.CallID = ovr.CallID
		}
		if ovr.TenantID != "" {
			base.TenantID = ovr.TenantID
		}
		if ovr.VoiceConfigID != 0 {
			base.VoiceConfigID = ovr.VoiceConfigID
		}
		if ovr.PhoneNumber != "" {
			base.PhoneNumber = ovr.PhoneNumber
		}
		if ovr.CallerNumber != "" {
			base.CallerNumber = ovr.CallerNumber
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if !ovr.StartedAt.IsZero() {
			base.StartedAt = ovr.StartedAt
		}
	}
	return base
}

// --- Webhook Payload Factories ---

// NewAssistantRequestEvent creates an assistant-request for the given destination number.
func NewAssistantRequestEvent(destination string) *AssistantRequestEvent {
	return &AssistantRequestEvent{
		Type: EventAssistantRequest,
		Call: CallInfo{
			ID:            gofakeit.UUID(),
			PhoneNumberID: gofakeit.UUID(),
			Customer:      CallCustomer{Number: FakeE164()},
		},
		PhoneNumber: PhoneNumberInfo{Number: destination},
	}
}

// NewStatusUpdateEvent creates a status-update for a call.
func NewStatusUpdateEvent(callID, status string) *StatusUpdateEvent {
	return &StatusUpdateEvent{
		Type:   EventStatusUpdate,
		Call:   CallInfo{ID: callID},
		Status: status,
	}
}

// NewEndOfCallReportEvent creates an end-of-call-report with fake transcript and summary.
func NewEndOfCallReportEvent(callID, destination string, durationSeconds float64) *EndOfCallReportEvent {
	return &EndOfCallReportEvent{
		Type:        EventEndOfCallReport,
		Call:        CallInfo{ID: callID},
		PhoneNumber: PhoneNumberInfo{Number: destination},
		Duration:    durationSeconds,
		Cost:        gofakeit.Float64Range(0.01, 2),
		Transcript:  "AI: Thank you for calling.\nUser: " + gofakeit.Sentence(8),
		Summary:     gofakeit.Sentence(12),
		EndedReason: "customer-ended-call",
	}
}

// NewCreateAppointmentParams creates plausible createAppointment arguments for a future date.
func NewCreateAppointmentParams(serviceName string, day time.Time) CreateAppointmentParams {
	return CreateAppointmentParams{
		ClientName:    gofakeit.Name(),
		ClientPhone:   FakeE164(),
		ClientEmail:   gofakeit.Email(),
		ServiceName:   serviceName,
		PreferredDate: day.Format("2006-01-02"),
		PreferredTime: "14:30",
	}
}
