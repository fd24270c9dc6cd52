package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/internal/validator"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
	"gitlab.com/timkado/api/voice-receptionist/pkg/utils"
)

// ProvisionRequest describes a new tenant number and, optionally, its catalog.
type ProvisionRequest struct {
	TenantID            string              `json:"tenant_id" validate:"required"`
	PhoneNumber         string              `json:"phone_number" validate:"required"`
	PhoneNumberID       string              `json:"phone_number_id,omitempty"`
	BusinessName        string              `json:"business_name" validate:"required"`
	AssistantName       string              `json:"assistant_name" validate:"required"`
	Greeting            string              `json:"greeting,omitempty"`
	Disabled            bool                `json:"disabled,omitempty"`
	BusinessHours       model.BusinessHours `json:"business_hours,omitempty"`
	BookingInstructions string              `json:"booking_instructions,omitempty"`
	VoiceID             string              `json:"voice_id,omitempty"`
	Timezone            string              `json:"timezone,omitempty"`
	Services            []ProvisionService  `json:"services,omitempty" validate:"dive"`
}

// ProvisionService is one catalog entry created with the configuration.
type ProvisionService struct {
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=0"`
}

// Provisioner creates voice configurations.
type Provisioner struct {
	voiceConfigRepo storage.VoiceConfigRepo
	serviceRepo     storage.ServiceRepo
}

// NewProvisioner creates a new provisioner.
func NewProvisioner(voiceConfigRepo storage.VoiceConfigRepo, serviceRepo storage.ServiceRepo) *Provisioner {
	return &Provisioner{voiceConfigRepo: voiceConfigRepo, serviceRepo: serviceRepo}
}

// ProvisionVoiceConfig validates and stores a new configuration plus its services.
// A number that is already provisioned yields apperrors.ErrDuplicate.
func (p *Provisioner) ProvisionVoiceConfig(ctx context.Context, req ProvisionRequest) (*model.VoiceConfig, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	phone := utils.NormalizePhone(req.PhoneNumber)
	if err := validator.ValidateVar(phone, "e164"); err != nil {
		return nil, fmt.Errorf("%w: phone number %q is not E.164", apperrors.ErrValidation, req.PhoneNumber)
	}

	hours := req.BusinessHours
	if len(hours) == 0 {
		hours = model.DefaultBusinessHours()
	}

	cfg := &model.VoiceConfig{
		TenantID:            req.TenantID,
		PhoneNumber:         phone,
		PhoneNumberID:       req.PhoneNumberID,
		BusinessName:        strings.TrimSpace(req.BusinessName),
		AssistantName:       strings.TrimSpace(req.AssistantName),
		Greeting:            req.Greeting,
		Enabled:             !req.Disabled,
		BusinessHours:       datatypes.NewJSONType(hours),
		BookingInstructions: req.BookingInstructions,
		VoiceID:             req.VoiceID,
		Timezone:            req.Timezone,
	}

	ctx = tenant.WithTenantID(ctx, req.TenantID)
	if err := p.voiceConfigRepo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	for _, s := range req.Services {
		svc := &model.Service{
			TenantID:        req.TenantID,
			Name:            strings.TrimSpace(s.Name),
			Description:     s.Description,
			Price:           s.Price,
			DurationMinutes: s.DurationMinutes,
			Active:          true,
		}
		if err := p.serviceRepo.Save(ctx, svc); err != nil {
			return cfg, fmt.Errorf("voice config %d created but service %q failed: %w", cfg.ID, s.Name, err)
		}
	}

	logger.FromContext(ctx).Info("Provisioned voice configuration",
		zap.String("tenant_id", cfg.TenantID),
		zap.String("phone_number", cfg.PhoneNumber),
		zap.Int("services", len(req.Services)))
	return cfg, nil
}
