package usecase

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/assistant"
	"gitlab.com/timkado/api/voice-receptionist/internal/jetstream"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/notify"
	"gitlab.com/timkado/api/voice-receptionist/internal/observer"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/internal/validator"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

const (
	appointmentDateTimeLayout = "2006-01-02 15:04"
	spokenDateTimeLayout      = "Monday, January 2 at 3:04 PM"
)

// Appointment request outcomes used for metrics.
const (
	outcomeBooked   = "booked"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// AppointmentService books appointments requested by the assistant mid-call
type AppointmentService struct {
	voiceConfigRepo storage.VoiceConfigRepo
	serviceRepo     storage.ServiceRepo
	appointmentRepo storage.AppointmentRepo
	publisher       jetstream.EventPublisher
	notifier        INotificationWorker
	now             func() time.Time
}

// NewAppointmentService creates a new appointment service. notifier may be nil
// when confirmation emails are disabled.
func NewAppointmentService(
	voiceConfigRepo storage.VoiceConfigRepo,
	serviceRepo storage.ServiceRepo,
	appointmentRepo storage.AppointmentRepo,
	publisher jetstream.EventPublisher,
	notifier INotificationWorker,
) *AppointmentService {
	if publisher == nil {
		publisher = jetstream.NoopPublisher{}
	}
	return &AppointmentService{
		voiceConfigRepo: voiceConfigRepo,
		serviceRepo:     serviceRepo,
		appointmentRepo: appointmentRepo,
		publisher:       publisher,
		notifier:        notifier,
		now:             utils.Now,
	}
}

// CreateFromToolCall books the appointment described by a createAppointment
// invocation. Business outcomes such as an unknown service or a closed day are
// returned as text for the assistant to read back, not as errors.
func (s *AppointmentService) CreateFromToolCall(ctx context.Context, evt *model.FunctionCallEvent) (*model.FunctionResultResponse, error) {
	if err := validator.Validate(evt); err != nil {
		return nil, err
	}
	if evt.FunctionCall.Name != assistant.CreateAppointmentFunction {
		return nil, fmt.Errorf("%w: unsupported function %q", apperrors.ErrBadRequest, evt.FunctionCall.Name)
	}

	ctx = tenant.WithCallID(ctx, evt.Call.ID)
	phone := utils.NormalizePhone(evt.PhoneNumber.Number)

	cfg, err := s.voiceConfigRepo.FindByPhoneNumber(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, apperrors.ErrTenantDisabled
	}

	ctx = tenant.WithTenantID(ctx, cfg.TenantID)
	ctx = logger.WithFields(ctx, zap.String("tenant_id", cfg.TenantID))
	log := logger.FromContext(ctx)
	params := evt.FunctionCall.Parameters

	services, err := s.serviceRepo.FindActive(ctx)
	if err != nil {
		observer.IncAppointmentOutcome(cfg.TenantID, outcomeFailed)
		return nil, err
	}

	svc, ok := matchService(services, params.ServiceName)
	if !ok {
		observer.IncAppointmentOutcome(cfg.TenantID, outcomeRejected)
		log.Info("Appointment rejected, unknown service", zap.String("service_name", params.ServiceName))
		return result(unknownServiceMessage(params.ServiceName, services)), nil
	}

	loc := utils.LoadLocationOrUTC(cfg.Timezone)
	scheduled, err := time.ParseInLocation(appointmentDateTimeLayout, params.PreferredDate+" "+params.PreferredTime, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid preferred date or time: %v", apperrors.ErrBadRequest, err)
	}

	if !scheduled.After(s.now()) {
		observer.IncAppointmentOutcome(cfg.TenantID, outcomeRejected)
		return result("That time has already passed. Could you suggest a later date and time?"), nil
	}

	if msg, open := withinBusinessHours(cfg.BusinessHours.Data(), scheduled); !open {
		observer.IncAppointmentOutcome(cfg.TenantID, outcomeRejected)
		log.Info("Appointment rejected, outside business hours", zap.Time("scheduled_at", scheduled))
		return result(msg), nil
	}

	serviceID := svc.ID
	appt := &model.Appointment{
		TenantID:        cfg.TenantID,
		VoiceConfigID:   cfg.ID,
		CallID:          evt.Call.ID,
		ServiceID:       &serviceID,
		ServiceName:     svc.Name,
		ClientName:      strings.TrimSpace(params.ClientName),
		ClientPhone:     utils.NormalizePhone(params.ClientPhone),
		ClientEmail:     strings.TrimSpace(params.ClientEmail),
		ScheduledAt:     scheduled.UTC(),
		DurationMinutes: svc.DurationMinutes,
		Status:          model.AppointmentStatusBooked,
		Source:          model.AppointmentSourceVoice,
	}

	if err := s.appointmentRepo.Save(ctx, appt); err != nil {
		observer.IncAppointmentOutcome(cfg.TenantID, outcomeFailed)
		return nil, err
	}
	observer.IncAppointmentOutcome(cfg.TenantID, outcomeBooked)

	scheduledAt := appt.ScheduledAt
	publish(ctx, s.publisher, model.LifecycleEvent{
		Kind:          model.LifecycleAppointmentCreated,
		OccurredAt:    s.now(),
		TenantID:      cfg.TenantID,
		CallID:        appt.CallID,
		AppointmentID: appt.ID,
		ServiceName:   appt.ServiceName,
		ScheduledAt:   &scheduledAt,
	})

	if appt.ClientEmail != "" && s.notifier != nil {
		task := NotificationTask{
			// The request context ends with the response; the email must outlive it.
			Ctx:           context.WithoutCancel(ctx),
			TenantID:      cfg.TenantID,
			AppointmentID: appt.ID,
			Email:         ConfirmationEmail(*cfg, *appt),
		}
		if err := s.notifier.SubmitTask(task); err != nil {
			log.Warn("Confirmation email not queued", zap.String("appointment_id", appt.ID), zap.Error(err))
		}
	}

	log.Info("Appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("service_name", appt.ServiceName),
		zap.Time("scheduled_at", appt.ScheduledAt))

	msg := fmt.Sprintf("Your %s appointment is booked for %s.", svc.Name, scheduled.Format(spokenDateTimeLayout))
	if appt.ClientEmail != "" {
		msg += " A confirmation email is on its way."
	}
	return result(msg), nil
}

func result(msg string) *model.FunctionResultResponse {
	return &model.FunctionResultResponse{Result: msg}
}

// matchService finds the active service whose name equals name, ignoring case and surrounding space.
func matchService(services []model.Service, name string) (model.Service, bool) {
	want := strings.TrimSpace(name)
	for _, svc := range services {
		if strings.EqualFold(strings.TrimSpace(svc.Name), want) {
			return svc, true
		}
	}
	return model.Service{}, false
}

func unknownServiceMessage(requested string, services []model.Service) string {
	if len(services) == 0 {
		return fmt.Sprintf("I couldn't find a service called %q, and no services can be booked by phone right now.", requested)
	}
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, svc.Name)
	}
	sort.Strings(names)
	return fmt.Sprintf("I couldn't find a service called %q. We offer: %s.", requested, strings.Join(names, ", "))
}

// withinBusinessHours checks the start time against the weekday's opening window.
// Days without configured hours accept any time.
func withinBusinessHours(hours model.BusinessHours, at time.Time) (string, bool) {
	day, ok := hours.For(at.Weekday())
	if !ok {
		return "", true
	}
	if day.Closed {
		return fmt.Sprintf("We're closed on %ss. Could you pick another day?", at.Weekday()), false
	}
	if day.Open == "" || day.Close == "" {
		return "", true
	}

	clock := at.Format("15:04")
	if clock < day.Open || clock >= day.Close {
		return fmt.Sprintf("On %ss we're open from %s to %s. Could you pick a time in that window?", at.Weekday(), day.Open, day.Close), false
	}
	return "", true
}

// ConfirmationEmail renders the booking confirmation sent to the client.
func ConfirmationEmail(cfg model.VoiceConfig, appt model.Appointment) notify.Email {
	when := appt.ScheduledAt.In(utils.LoadLocationOrUTC(cfg.Timezone)).Format(spokenDateTimeLayout)
	subject := fmt.Sprintf("Your appointment with %s", cfg.BusinessName)
	text := fmt.Sprintf("Hi %s,\n\nYour %s appointment with %s is booked for %s.\n\nSee you soon!",
		appt.ClientName, appt.ServiceName, cfg.BusinessName, when)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your <strong>%s</strong> appointment with %s is booked for <strong>%s</strong>.</p><p>See you soon!</p>",
		html.EscapeString(appt.ClientName), html.EscapeString(appt.ServiceName), html.EscapeString(cfg.BusinessName), when)

	return notify.Email{
		To:             []string{appt.ClientEmail},
		Subject:        subject,
		HTML:           body,
		Text:           text,
		IdempotencyKey: "appointment-" + appt.ID,
	}
}
