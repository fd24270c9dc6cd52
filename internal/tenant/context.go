package tenant

import (
	"context"
	"errors"
	"fmt"
)

// Key for tenant ID in context
type contextKey string

const (
	tenantIDKey  contextKey = "tenantID"
	requestIDKey contextKey = "requestID"
	callIDKey    contextKey = "callID"
)

// ErrTenantIDNotFound is returned when tenant ID is not found in context
var ErrTenantIDNotFound = errors.New("tenant ID not found in context")

// WithTenantID adds a tenant ID to the context
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// FromContext extracts the tenant ID from the context
func FromContext(ctx context.Context) (string, error) {
	tenantID, ok := ctx.Value(tenantIDKey).(string)
	if !ok || tenantID == "" {
		return "", ErrTenantIDNotFound
	}
	return tenantID, nil
}

// ErrNoRequestIDInContext is returned when no request ID is found in context
var ErrNoRequestIDInContext = errors.New("no request ID found in context")

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FromRequestIDContext extracts the request ID from the context
func FromRequestIDContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrNoRequestIDInContext
	}
	return requestID, nil
}

// ErrNoCallIDInContext is returned when no provider call ID is found in context
var ErrNoCallIDInContext = errors.New("no call ID found in context")

// WithCallID adds the provider call identifier to the context
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey, callID)
}

// CallIDFromContext extracts the provider call identifier from the context
func CallIDFromContext(ctx context.Context) (string, error) {
	callID, ok := ctx.Value(callIDKey).(string)
	if !ok || callID == "" {
		return "", ErrNoCallIDInContext
	}
	return callID, nil
}

// CheckOwnership verifies that a record's tenant matches the tenant in context.
// Records without a tenant are accepted.
func CheckOwnership(ctx context.Context, recordTenantID string) error {
	if recordTenantID == "" {
		return nil
	}

	tenantID, err := FromContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get tenant ID: %w", err)
	}

	if recordTenantID != tenantID {
		return fmt.Errorf("record tenant (%s) does not match tenant ID (%s)", recordTenantID, tenantID)
	}

	return nil
}
