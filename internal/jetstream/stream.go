package jetstream

import (
	"time"

	"github.com/nats-io/nats.go"
)

// duplicateWindow bounds how long JetStream remembers Nats-Msg-Id values.
const duplicateWindow = 2 * time.Minute

// LifecycleStreamConfig returns the stream capturing every lifecycle subject under prefix.
func LifecycleStreamConfig(name, prefix string, maxAgeDays int) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:       name,
		Subjects:   []string{prefix + ".>"},
		Retention:  nats.LimitsPolicy,
		Storage:    nats.FileStorage,
		MaxAge:     time.Duration(maxAgeDays) * 24 * time.Hour,
		Duplicates: duplicateWindow,
	}
}

// StreamConfigEqual compares two NATS stream configurations for equality
// Focuses on core properties only
func StreamConfigEqual(a, b nats.StreamConfig) bool {
	isCfgSame := a.Name == b.Name &&
		a.Retention == b.Retention &&
		a.MaxMsgs == b.MaxMsgs &&
		a.MaxAge == b.MaxAge &&
		a.Storage == b.Storage &&
		a.Duplicates == b.Duplicates

	if len(a.Subjects) != len(b.Subjects) {
		return false
	}
	for i, subject := range a.Subjects {
		if subject != b.Subjects[i] {
			return false
		}
	}
	return isCfgSame
}
