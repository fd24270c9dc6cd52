package model

import "time"

// LifecycleKind names a published lifecycle event; it is also the subject suffix.
type LifecycleKind string

// Lifecycle events published after the corresponding state is persisted.
const (
	LifecycleCallStarted        LifecycleKind = "calls.started"
	LifecycleCallRejected       LifecycleKind = "calls.rejected"
	LifecycleCallStatus         LifecycleKind = "calls.status"
	LifecycleCallCompleted      LifecycleKind = "calls.completed"
	LifecycleAppointmentCreated LifecycleKind = "appointments.created"
)

// LifecycleEvent is the JSON document published for downstream consumers
// such as billing and analytics.
type LifecycleEvent struct {
	Kind            LifecycleKind `json:"kind"`
	OccurredAt      time.Time     `json:"occurred_at"`
	TenantID        string        `json:"tenant_id,omitempty"`
	CallID          string        `json:"call_id,omitempty"`
	PhoneNumber     string        `json:"phone_number,omitempty"`
	CallerNumber    string        `json:"caller_number,omitempty"`
	Status          string        `json:"status,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
	BilledMinutes   int           `json:"billed_minutes,omitempty"`
	Cost            float64       `json:"cost,omitempty"`
	AppointmentID   string        `json:"appointment_id,omitempty"`
	ServiceName     string        `json:"service_name,omitempty"`
	ScheduledAt     *time.Time    `json:"scheduled_at,omitempty"`
}

// DedupID identifies the event for broker-side de-duplication of redeliveries.
func (e LifecycleEvent) DedupID() string {
	switch e.Kind {
	case LifecycleAppointmentCreated:
		return string(e.Kind) + ":" + e.AppointmentID
	case LifecycleCallStatus:
		return string(e.Kind) + ":" + e.CallID + ":" + e.Status
	default:
		return string(e.Kind) + ":" + e.CallID
	}
}
