package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	webhookLabels       = []string{"event_type", "tenant_id"}
	webhookResultLabels = []string{"event_type", "tenant_id", "status_code", "error_type"}

	WebhookEventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_webhook_events_received_total",
			Help: "Total number of telephony webhook events received.",
		},
		[]string{"event_type"},
	)
	WebhookEventsHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_webhook_events_handled_total",
			Help: "Total number of telephony webhook events handled, labeled by response status and error type.",
		},
		webhookResultLabels,
	)
	WebhookProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_receptionist_webhook_processing_duration_seconds",
			Help:    "Histogram of webhook processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"event_type"},
	)

	// Call outcomes: ringing, rejected, completed, status transitions.
	CallOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_call_outcomes_total",
			Help: "Total number of call lifecycle transitions recorded, labeled by resulting status.",
		},
		[]string{"tenant_id", "status"},
	)
	BilledMinutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_billed_minutes_total",
			Help: "Total number of call minutes added to tenant monthly usage.",
		},
		[]string{"tenant_id"},
	)
	AppointmentsBookedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_appointments_total",
			Help: "Total number of assistant appointment requests, labeled by outcome.",
		},
		[]string{"tenant_id", "outcome"},
	)
	EventPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_event_publish_errors_total",
			Help: "Total number of call lifecycle events that failed to publish.",
		},
		[]string{"subject"},
	)
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "tenant_id", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_receptionist_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// Notification worker pool metrics
var (
	notificationTasksSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_notification_tasks_submitted_total",
			Help: "Total number of confirmation email tasks submitted to the worker pool.",
		},
		[]string{"tenant_id"},
	)
	notificationTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_receptionist_notification_tasks_processed_total",
			Help: "Total number of confirmation email tasks processed, labeled by final status.",
		},
		[]string{"tenant_id", "status"},
	)
	notificationProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_receptionist_notification_processing_duration_seconds",
			Help:    "Histogram of processing durations for confirmation email tasks.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant_id"},
	)
	notificationQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_receptionist_notification_queue_length",
		Help: "Approximate number of tasks waiting in the notification worker pool.",
	})
)

// InitMetrics toggles metric collection. Collectors are registered by promauto
// at package init either way.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncWebhookReceived increments the received counter for an event type.
func IncWebhookReceived(eventType string) {
	if !metricsEnabled {
		return
	}
	WebhookEventsReceivedTotal.WithLabelValues(sanitizeLabel(eventType)).Inc()
}

// ObserveWebhookHandled records the outcome and duration of one webhook delivery.
func ObserveWebhookHandled(eventType, tenant string, statusCode int, err error, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	errType := "none"
	if err != nil {
		errType = SanitizeErrorType(err.Error())
	}
	WebhookEventsHandledTotal.WithLabelValues(sanitizeLabel(eventType), sanitizeTenant(tenant), statusCodeLabel(statusCode), errType).Inc()
	WebhookProcessingDurationSeconds.WithLabelValues(sanitizeLabel(eventType)).Observe(duration.Seconds())
}

// IncCallOutcome counts a call log transition into status.
func IncCallOutcome(tenant, status string) {
	if !metricsEnabled {
		return
	}
	CallOutcomesTotal.WithLabelValues(sanitizeTenant(tenant), sanitizeLabel(status)).Inc()
}

// AddBilledMinutes adds minutes to the tenant's billed minutes counter.
func AddBilledMinutes(tenant string, minutes int) {
	if !metricsEnabled || minutes <= 0 {
		return
	}
	BilledMinutesTotal.WithLabelValues(sanitizeTenant(tenant)).Add(float64(minutes))
}

// IncAppointmentOutcome counts an appointment request by outcome (booked, rejected, failed).
func IncAppointmentOutcome(tenant, outcome string) {
	if !metricsEnabled {
		return
	}
	AppointmentsBookedTotal.WithLabelValues(sanitizeTenant(tenant), outcome).Inc()
}

// IncEventPublishError counts a failed lifecycle event publication.
func IncEventPublishError(subject string) {
	if !metricsEnabled {
		return
	}
	EventPublishErrorsTotal.WithLabelValues(subject).Inc()
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, tenantID string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeTenant(tenantID), status).Observe(duration.Seconds())
}

// IncNotificationTasksSubmitted increments the counter for submitted email tasks.
func IncNotificationTasksSubmitted(tenantID string) {
	if !metricsEnabled {
		return
	}
	notificationTasksSubmittedTotal.WithLabelValues(sanitizeTenant(tenantID)).Inc()
}

// IncNotificationTasksProcessed increments the counter for processed email tasks by status.
func IncNotificationTasksProcessed(tenantID, status string) {
	if !metricsEnabled {
		return
	}
	notificationTasksProcessedTotal.WithLabelValues(sanitizeTenant(tenantID), status).Inc()
}

// ObserveNotificationProcessingDuration records the processing time for an email task.
func ObserveNotificationProcessingDuration(tenantID string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	notificationProcessingDurationSeconds.WithLabelValues(sanitizeTenant(tenantID)).Observe(duration.Seconds())
}

// SetNotificationQueueLength sets the current notification queue length.
func SetNotificationQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	notificationQueueLength.Set(float64(length))
}

// sanitizeTenant ensures the tenant label is valid or returns a default value.
func sanitizeTenant(tenant string) string {
	if tenant == "" {
		return "unknown"
	}
	return tenant
}

func sanitizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	if len(v) > 64 {
		return v[:64]
	}
	return v
}

func statusCodeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 200 && code < 300:
		return "2xx"
	default:
		return "other"
	}
}

// SanitizeErrorType maps specific errors or provides a default category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "disabled"):
		return "tenant_disabled"
	case strings.Contains(errStr, "Unknown event type"):
		return "unknown_event"
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "nats"), strings.Contains(errStr, "jetstream"):
		return "nats"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
