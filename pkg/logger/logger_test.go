package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextAddsIdentifiers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := Log
	Log = zap.New(core)
	defer func() { Log = prev }()

	ctx := tenant.WithCallID(tenant.WithRequestID(context.Background(), "req-9"), "call-9")
	FromContext(ctx).Info("handled")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "call-9", fields["call_id"])
}

func TestFromContextPrefersScopedLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core).With(zap.String("event_type", "status-update")))

	FromContext(ctx).Info("scoped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "status-update", logs.All()[0].ContextMap()["event_type"])
}

func TestInitializeWithFileWritesRotatedLog(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	path := filepath.Join(t.TempDir(), "receptionist.log")
	require.NoError(t, InitializeWithFile("debug", FileConfig{Path: path, MaxSizeMB: 1}))

	Log.Info("written to file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestInitializeFallsBackToInfo(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	require.NoError(t, Initialize("not-a-level"))
	assert.False(t, Log.Core().Enabled(zap.DebugLevel))
	assert.True(t, Log.Core().Enabled(zap.InfoLevel))
}

func TestWithFieldsAccumulate(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithFields(ctx, zap.String("event_type", "end-of-call-report"))
	ctx = WithFields(ctx, zap.String("tenant_id", "tenant-1"))

	FromContext(ctx).Info("finalized")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "end-of-call-report", fields["event_type"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
}
