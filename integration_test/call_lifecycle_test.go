package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	natsgo "github.com/nats-io/nats.go"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/usecase"
)

const testDestination = "+15550100000"

// provisionTenant creates a tenant open around the clock with a single Botox service.
func (s *IntegrationSuite) provisionTenant(disabled bool) *model.VoiceConfig {
	hours := model.BusinessHours{}
	for _, day := range model.Weekdays {
		hours[strings.ToLower(day.String())] = model.DayHours{Open: "00:00", Close: "23:59"}
	}
	cfg, err := s.provisioner.ProvisionVoiceConfig(s.Ctx, usecase.ProvisionRequest{
		TenantID:      "tenant_it",
		PhoneNumber:   testDestination,
		BusinessName:  "Glow Med Spa",
		AssistantName: "Ava",
		Disabled:      disabled,
		BusinessHours: hours,
		Timezone:      "UTC",
		Services: []usecase.ProvisionService{
			{Name: "Botox", Price: 300, DurationMinutes: 30},
		},
	})
	s.Require().NoError(err)
	return cfg
}

func (s *IntegrationSuite) postWebhook(payload interface{}) *resty.Response {
	resp, err := s.client.R().SetContext(s.Ctx).SetBody(map[string]interface{}{"message": payload}).Post("/api/voice/webhook")
	s.Require().NoError(err)
	return resp
}

// lifecycleEvents reads up to want events from the stream, waiting at most timeout for each.
func (s *IntegrationSuite) lifecycleEvents(want int, timeout time.Duration) []model.LifecycleEvent {
	sub, err := s.js.SubscribeSync(testSubjectPrefix+".>", natsgo.OrderedConsumer())
	s.Require().NoError(err)
	defer func() { _ = sub.Unsubscribe() }()

	var events []model.LifecycleEvent
	for len(events) < want {
		msg, err := sub.NextMsg(timeout)
		if err != nil {
			break
		}
		var evt model.LifecycleEvent
		s.Require().NoError(json.Unmarshal(msg.Data, &evt))
		events = append(events, evt)
	}
	return events
}

func (s *IntegrationSuite) minutesUsed(id uint) int {
	var cfg model.VoiceConfig
	s.Require().NoError(s.db.WithContext(s.Ctx).First(&cfg, id).Error)
	return cfg.MonthlyMinutesUsed
}

func (s *IntegrationSuite) TestCallLifecycleWithBooking() {
	cfg := s.provisionTenant(false)
	start := model.NewAssistantRequestEvent(testDestination)

	resp := s.postWebhook(start)
	s.Require().Equal(http.StatusOK, resp.StatusCode(), resp.String())
	var assistantResp model.AssistantResponse
	s.Require().NoError(json.Unmarshal(resp.Body(), &assistantResp))
	s.Equal("Ava", assistantResp.Assistant.Name)
	s.Contains(assistantResp.Assistant.FirstMessage, "Glow Med Spa")

	resp = s.postWebhook(model.NewStatusUpdateEvent(start.Call.ID, "in-progress"))
	s.Require().Equal(http.StatusOK, resp.StatusCode(), resp.String())

	params := model.NewCreateAppointmentParams("botox", time.Now().UTC().AddDate(0, 0, 1))
	booking := model.FunctionCallEvent{
		Type:         model.EventFunctionCall,
		Call:         start.Call,
		PhoneNumber:  start.PhoneNumber,
		FunctionCall: model.FunctionCall{Name: assistant.CreateAppointmentFunction, Parameters: params},
	}
	resp, err := s.client.R().SetContext(s.Ctx).SetBody(booking).Post("/api/voice/appointments")
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode(), resp.String())
	var result model.FunctionResultResponse
	s.Require().NoError(json.Unmarshal(resp.Body(), &result))
	s.Contains(result.Result, "Your Botox appointment is booked")

	resp = s.postWebhook(model.NewEndOfCallReportEvent(start.Call.ID, testDestination, 125))
	s.Require().Equal(http.StatusOK, resp.StatusCode(), resp.String())

	var callLog model.CallLog
	s.Require().NoError(s.db.WithContext(s.Ctx).Where("call_id = ?", start.Call.ID).First(&callLog).Error)
	s.Equal(model.CallStatusCompleted, callLog.Status)
	s.Equal(cfg.ID, callLog.VoiceConfigID)
	s.InDelta(125, callLog.DurationSeconds, 0.001)
	s.Equal(3, s.minutesUsed(cfg.ID))

	var appt model.Appointment
	s.Require().NoError(s.db.WithContext(s.Ctx).Where("call_id = ?", start.Call.ID).First(&appt).Error)
	s.Equal("Botox", appt.ServiceName)
	s.Equal(params.ClientEmail, appt.ClientEmail)

	s.Eventually(func() bool {
		return s.emailsSent.Load() == 1
	}, 5*time.Second, 50*time.Millisecond, "confirmation email was not sent")

	events := s.lifecycleEvents(4, 3*time.Second)
	s.Require().Len(events, 4)
	kinds := make([]model.LifecycleKind, 0, len(events))
	for _, evt := range events {
		kinds = append(kinds, evt.Kind)
		s.Equal("tenant_it", evt.TenantID)
	}
	s.Equal([]model.LifecycleKind{
		model.LifecycleCallStarted,
		model.LifecycleCallStatus,
		model.LifecycleAppointmentCreated,
		model.LifecycleCallCompleted,
	}, kinds)
	s.Equal(3, events[3].BilledMinutes)
}

func (s *IntegrationSuite) TestAssistantRequestRedeliveryIsIdempotent() {
	s.provisionTenant(false)
	start := model.NewAssistantRequestEvent(testDestination)

	for i := 0; i < 3; i++ {
		resp := s.postWebhook(start)
		s.Require().Equal(http.StatusOK, resp.StatusCode(), resp.String())
	}

	var count int64
	s.Require().NoError(s.db.WithContext(s.Ctx).Model(&model.CallLog{}).Where("call_id = ?", start.Call.ID).Count(&count).Error)
	s.Equal(int64(1), count)

	events := s.lifecycleEvents(3, time.Second)
	s.Len(events, 1)
}

func (s *IntegrationSuite) TestDisabledTenantIsRejected() {
	s.provisionTenant(true)
	start := model.NewAssistantRequestEvent(testDestination)

	resp := s.postWebhook(start)
	s.Equal(http.StatusForbidden, resp.StatusCode())
	s.JSONEq(`{"error":"Voice receptionist is disabled"}`, resp.String())

	var callLog model.CallLog
	s.Require().NoError(s.db.WithContext(s.Ctx).Where("call_id = ?", start.Call.ID).First(&callLog).Error)
	s.Equal(model.CallStatusRejected, callLog.Status)

	events := s.lifecycleEvents(1, 3*time.Second)
	s.Require().Len(events, 1)
	s.Equal(model.LifecycleCallRejected, events[0].Kind)
}

func (s *IntegrationSuite) TestUnknownNumberIsNotFound() {
	resp := s.postWebhook(model.NewAssistantRequestEvent("+15559999999"))
	s.Equal(http.StatusNotFound, resp.StatusCode())
	s.JSONEq(`{"error":"Voice configuration not found"}`, resp.String())

	var count int64
	s.Require().NoError(s.db.WithContext(s.Ctx).Model(&model.CallLog{}).Count(&count).Error)
	s.Zero(count)
}

func (s *IntegrationSuite) TestWebhookRequiresSecret() {
	resp, err := resty.New().R().SetContext(s.Ctx).SetBody(`{"type":"assistant-request"}`).Post(s.server.URL + "/api/voice/webhook")
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode())
}

func (s *IntegrationSuite) TestConcurrentEndOfCallReportsAccumulate() {
	cfg := s.provisionTenant(false)
	const calls = 10

	callIDs := make([]string, calls)
	for i := range callIDs {
		start := model.NewAssistantRequestEvent(testDestination)
		resp := s.postWebhook(start)
		s.Require().Equal(http.StatusOK, resp.StatusCode(), resp.String())
		callIDs[i] = start.Call.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, calls)
	for _, id := range callIDs {
		wg.Add(1)
		go func(callID string) {
			defer wg.Done()
			resp, err := s.client.R().
				SetBody(map[string]interface{}{"message": model.NewEndOfCallReportEvent(callID, testDestination, 61)}).
				Post("/api/voice/webhook")
			if err != nil {
				errs <- err
				return
			}
			if resp.StatusCode() != http.StatusOK {
				errs <- fmt.Errorf("call %s: status %d: %s", callID, resp.StatusCode(), resp.String())
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	s.Equal(2*calls, s.minutesUsed(cfg.ID))
}

func (s *IntegrationSuite) TestDuplicateProvisionConflicts() {
	s.provisionTenant(false)

	_, err := s.provisioner.ProvisionVoiceConfig(s.Ctx, usecase.ProvisionRequest{
		TenantID:      "tenant_other",
		PhoneNumber:   testDestination,
		BusinessName:  "Other Spa",
		AssistantName: "Max",
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}
