package main

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/httpapi"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

const (
	webhookPath      = "/api/voice/webhook"
	appointmentsPath = "/api/voice/appointments"
)

type simOptions struct {
	BaseURL         string
	Phone           string
	Secret          string
	Calls           int
	Concurrency     int
	DurationSeconds float64
	BookService     string
	LogLevel        string
}

// callResult is the outcome of one simulated call.
type callResult struct {
	CallID string
	Booked bool
	Err    error
}

type simStats struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	booked    atomic.Int64
}

type simSummary struct {
	Succeeded int64
	Failed    int64
	Booked    int64
}

func (s *simStats) record(r callResult) {
	if r.Err != nil {
		s.failed.Add(1)
		logger.Log.Warn("Simulated call failed", zap.String("call_id", r.CallID), zap.Error(r.Err))
		return
	}
	s.succeeded.Add(1)
	if r.Booked {
		s.booked.Add(1)
	}
	logger.Log.Debug("Simulated call completed", zap.String("call_id", r.CallID), zap.Bool("booked", r.Booked))
}

func (s *simStats) snapshot() simSummary {
	return simSummary{
		Succeeded: s.succeeded.Load(),
		Failed:    s.failed.Load(),
		Booked:    s.booked.Load(),
	}
}

// envelope mirrors how the provider wraps server messages.
type envelope struct {
	Message interface{} `json:"message"`
}

type simulator struct {
	http *resty.Client
	opts simOptions
	now  func() time.Time
}

func newSimulator(opts simOptions) *simulator {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	if opts.Secret != "" {
		client.SetHeader(httpapi.SecretHeader, opts.Secret)
	}
	return &simulator{http: client, opts: opts, now: time.Now}
}

// simulateCall plays one call from ring to hang-up.
func (s *simulator) simulateCall(ctx context.Context) callResult {
	start := model.NewAssistantRequestEvent(s.opts.Phone)
	result := callResult{CallID: start.Call.ID}

	var assistantResp model.AssistantResponse
	if err := s.post(ctx, webhookPath, start, &assistantResp); err != nil {
		result.Err = fmt.Errorf("assistant-request: %w", err)
		return result
	}
	if assistantResp.Assistant.Name == "" {
		result.Err = fmt.Errorf("assistant-request: empty assistant in response")
		return result
	}

	if err := s.post(ctx, webhookPath, model.NewStatusUpdateEvent(start.Call.ID, "in-progress"), nil); err != nil {
		result.Err = fmt.Errorf("status-update: %w", err)
		return result
	}

	if s.opts.BookService != "" {
		booked, err := s.book(ctx, start)
		if err != nil {
			result.Err = fmt.Errorf("function-call: %w", err)
			return result
		}
		result.Booked = booked
	}

	duration := s.opts.DurationSeconds
	if duration <= 0 {
		duration = float64(gofakeit.Number(15, 600))
	}
	if err := s.post(ctx, webhookPath, model.NewEndOfCallReportEvent(start.Call.ID, s.opts.Phone, duration), nil); err != nil {
		result.Err = fmt.Errorf("end-of-call-report: %w", err)
		return result
	}
	return result
}

// book asks for an appointment on the next weekday afternoon.
func (s *simulator) book(ctx context.Context, start *model.AssistantRequestEvent) (bool, error) {
	evt := model.FunctionCallEvent{
		Type:        model.EventFunctionCall,
		Call:        start.Call,
		PhoneNumber: start.PhoneNumber,
		FunctionCall: model.FunctionCall{
			Name:       assistant.CreateAppointmentFunction,
			Parameters: model.NewCreateAppointmentParams(s.opts.BookService, nextWeekday(s.now())),
		},
	}

	var resp model.FunctionResultResponse
	if err := s.post(ctx, appointmentsPath, evt, &resp); err != nil {
		return false, err
	}
	logger.Log.Debug("Booking result", zap.String("call_id", start.Call.ID), zap.String("result", resp.Result))
	return true, nil
}

func (s *simulator) post(ctx context.Context, path string, payload, result interface{}) error {
	req := s.http.R().
		SetContext(ctx).
		SetBody(envelope{Message: payload}).
		SetError(&model.ErrorResponse{})
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		if e, ok := resp.Error().(*model.ErrorResponse); ok && e.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode(), e.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}

// nextWeekday returns the first Monday to Friday date after t.
func nextWeekday(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
