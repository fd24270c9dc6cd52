package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIDRoundTrip(t *testing.T) {
	ctx := WithTenantID(context.Background(), "tenant-a")

	id, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", id)

	_, err = FromContext(context.Background())
	assert.ErrorIs(t, err, ErrTenantIDNotFound)
}

func TestRequestAndCallIDs(t *testing.T) {
	ctx := WithCallID(WithRequestID(context.Background(), "req-1"), "call-1")

	reqID, err := FromRequestIDContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", reqID)

	callID, err := CallIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "call-1", callID)

	_, err = CallIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoCallIDInContext)
}

func TestCheckOwnership(t *testing.T) {
	ctx := WithTenantID(context.Background(), "tenant-a")

	assert.NoError(t, CheckOwnership(ctx, ""))
	assert.NoError(t, CheckOwnership(ctx, "tenant-a"))
	assert.Error(t, CheckOwnership(ctx, "tenant-b"))
	assert.Error(t, CheckOwnership(context.Background(), "tenant-a"))
}
