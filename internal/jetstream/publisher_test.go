package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/voice-receptionist/internal/jetstream"
	jsmock "gitlab.com/timkado/api/voice-receptionist/internal/jetstream/mock"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

func TestPublisherPublishesToKindSubject(t *testing.T) {
	client := new(jsmock.ClientMock)
	pub := jetstream.NewPublisher(client, "v1.voice")

	evt := model.LifecycleEvent{
		Kind:          model.LifecycleCallCompleted,
		OccurredAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TenantID:      "tenant-a",
		CallID:        "call-1",
		BilledMinutes: 3,
	}

	client.On("Publish", mock.Anything, "v1.voice.calls.completed", mock.MatchedBy(func(data []byte) bool {
		var got model.LifecycleEvent
		if err := json.Unmarshal(data, &got); err != nil {
			return false
		}
		return got.CallID == "call-1" && got.BilledMinutes == 3
	}), mock.MatchedBy(func(h map[string]string) bool {
		return h[nats.MsgIdHdr] == "calls.completed:call-1" && h["Tenant-Id"] == "tenant-a"
	})).Return(nil).Once()

	require.NoError(t, pub.Publish(context.Background(), evt))
	client.AssertExpectations(t)
}

func TestPublisherStatusDedupIncludesStatus(t *testing.T) {
	client := new(jsmock.ClientMock)
	pub := jetstream.NewPublisher(client, "v1.voice")

	client.On("Publish", mock.Anything, "v1.voice.calls.status", mock.Anything, mock.MatchedBy(func(h map[string]string) bool {
		return h[nats.MsgIdHdr] == "calls.status:call-2:in-progress"
	})).Return(nil).Once()

	err := pub.Publish(context.Background(), model.LifecycleEvent{Kind: model.LifecycleCallStatus, CallID: "call-2", Status: "in-progress"})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPublisherReturnsClientError(t *testing.T) {
	client := new(jsmock.ClientMock)
	pub := jetstream.NewPublisher(client, "v1.voice")
	client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats: timeout")).Once()

	err := pub.Publish(context.Background(), model.LifecycleEvent{Kind: model.LifecycleCallStarted, CallID: "call-3"})
	assert.EqualError(t, err, "nats: timeout")
}

func TestNoopPublisher(t *testing.T) {
	var pub jetstream.EventPublisher = jetstream.NoopPublisher{}
	assert.NoError(t, pub.Publish(context.Background(), model.LifecycleEvent{Kind: model.LifecycleCallStarted}))
}

func TestLifecycleStreamConfig(t *testing.T) {
	cfg := jetstream.LifecycleStreamConfig("voice_calls", "v1.voice", 7)

	assert.Equal(t, "voice_calls", cfg.Name)
	assert.Equal(t, []string{"v1.voice.>"}, cfg.Subjects)
	assert.Equal(t, nats.FileStorage, cfg.Storage)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)
	assert.Equal(t, 2*time.Minute, cfg.Duplicates)
}

func TestStreamConfigEqual(t *testing.T) {
	a := *jetstream.LifecycleStreamConfig("voice_calls", "v1.voice", 7)
	b := *jetstream.LifecycleStreamConfig("voice_calls", "v1.voice", 7)
	assert.True(t, jetstream.StreamConfigEqual(a, b))

	b.MaxAge = time.Hour
	assert.False(t, jetstream.StreamConfigEqual(a, b))

	c := *jetstream.LifecycleStreamConfig("voice_calls", "v2.voice", 7)
	assert.False(t, jetstream.StreamConfigEqual(a, c))
}

func TestLifecycleEventDedupID(t *testing.T) {
	evt := model.LifecycleEvent{Kind: model.LifecycleAppointmentCreated, CallID: "call-9", AppointmentID: "appt-1"}
	assert.Equal(t, "appointments.created:appt-1", evt.DedupID())
}
