// Package notify sends transactional email through the Resend HTTP API.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/config"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

const (
	defaultBaseURL    = "https://api.resend.com"
	defaultTimeout    = 10 * time.Second
	retryWaitTime     = 500 * time.Millisecond
	retryMaxWaitTime  = 5 * time.Second
	idempotencyKeyHdr = "Idempotency-Key"
	emailsEndpoint    = "/emails"
)

// Email is one outbound message.
type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	// IdempotencyKey lets the provider drop a resend of the same message.
	IdempotencyKey string `json:"-"`
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, email Email) (string, error)
}

type sendRequest struct {
	From string `json:"from"`
	Email
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// ResendClient posts emails to Resend.
type ResendClient struct {
	http *resty.Client
	from string
}

// Ensure ResendClient implements Sender
var _ Sender = (*ResendClient)(nil)

// NewResendClient builds a client with bearer auth and retries on 429 and 5xx responses.
func NewResendClient(cfg config.ResendConfig) *ResendClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		AddRetryCondition(shouldRetry)

	return &ResendClient{http: client, from: cfg.From}
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Send delivers email and returns the provider message id.
func (c *ResendClient) Send(ctx context.Context, email Email) (string, error) {
	log := logger.FromContext(ctx)

	if len(email.To) == 0 {
		return "", fmt.Errorf("%w: email has no recipients", apperrors.ErrBadRequest)
	}

	req := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{From: c.from, Email: email}).
		SetResult(&sendResponse{}).
		SetError(&errorResponse{})
	if email.IdempotencyKey != "" {
		req.SetHeader(idempotencyKeyHdr, email.IdempotencyKey)
	}

	resp, err := req.Post(emailsEndpoint)
	if err != nil {
		log.Warn("Email request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", apperrors.ErrNotification, err)
	}

	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*errorResponse); ok && e.Message != "" {
			msg = e.Message
		}
		log.Warn("Email provider rejected message", zap.Int("status", resp.StatusCode()), zap.String("message", msg))
		err := fmt.Errorf("%w: status %d: %s", apperrors.ErrNotification, resp.StatusCode(), msg)
		if !shouldRetry(resp, nil) {
			// The provider will not accept this message as sent.
			return "", apperrors.NewFatal(err, "send email")
		}
		return "", err
	}

	result := resp.Result().(*sendResponse)
	log.Info("Email sent", zap.String("email_id", result.ID), zap.Int("attempts", resp.Request.Attempt))
	return result.ID, nil
}
