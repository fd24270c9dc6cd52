package observer

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeErrorType(t *testing.T) {
	tests := map[string]string{
		"":                                        "none",
		"voice receptionist is disabled":          "tenant_disabled",
		"Unknown event type":                      "unknown_event",
		"database error: connection reset":        "database",
		"validation failed: field 'call.id'":      "validation",
		"resource not found: voice configuration": "not_found",
		"context deadline exceeded":               "timeout",
		"panic recovered: boom":                   "panic",
		"something odd":                           "unknown",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizeErrorType(in), in)
	}
}

func TestObserveWebhookHandledCountsByStatusClass(t *testing.T) {
	InitMetrics(true)

	before := testutil.ToFloat64(WebhookEventsHandledTotal.WithLabelValues("status-update", "tenant-metrics", "4xx", "not_found"))
	ObserveWebhookHandled("status-update", "tenant-metrics", http.StatusNotFound, errors.New("resource not found"), 5*time.Millisecond)
	after := testutil.ToFloat64(WebhookEventsHandledTotal.WithLabelValues("status-update", "tenant-metrics", "4xx", "not_found"))

	assert.Equal(t, before+1, after)
}

func TestAddBilledMinutesIgnoresZero(t *testing.T) {
	InitMetrics(true)

	before := testutil.ToFloat64(BilledMinutesTotal.WithLabelValues("tenant-billing"))
	AddBilledMinutes("tenant-billing", 0)
	AddBilledMinutes("tenant-billing", 3)
	after := testutil.ToFloat64(BilledMinutesTotal.WithLabelValues("tenant-billing"))

	assert.Equal(t, before+3, after)
}

func TestDisabledMetricsAreNoop(t *testing.T) {
	InitMetrics(false)
	defer InitMetrics(true)

	before := testutil.ToFloat64(CallOutcomesTotal.WithLabelValues("tenant-off", "ringing"))
	IncCallOutcome("tenant-off", "ringing")
	after := testutil.ToFloat64(CallOutcomesTotal.WithLabelValues("tenant-off", "ringing"))

	assert.Equal(t, before, after)
}
