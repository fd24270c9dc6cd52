package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/internal/tenant"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

func setupProvisioner(t *testing.T) (*Provisioner, storage.VoiceConfigRepo, storage.ServiceRepo, context.Context) {
	repo := newTestRepo(t)
	voiceConfigs := storage.NewVoiceConfigRepoAdapter(repo)
	services := storage.NewServiceRepoAdapter(repo)
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))
	return NewProvisioner(voiceConfigs, services), voiceConfigs, services, ctx
}

func TestProvisionVoiceConfig(t *testing.T) {
	p, voiceConfigs, services, ctx := setupProvisioner(t)

	cfg, err := p.ProvisionVoiceConfig(ctx, ProvisionRequest{
		TenantID:      "tenant-new",
		PhoneNumber:   "+1 (555) 010-3333",
		BusinessName:  " Glow Med Spa ",
		AssistantName: "Ava",
		Timezone:      "America/Chicago",
		Services: []ProvisionService{
			{Name: "Botox", Price: 12.5, DurationMinutes: 30},
			{Name: "Hydrafacial", Price: 150, DurationMinutes: 60},
		},
	})

	require.NoError(t, err)
	assert.NotZero(t, cfg.ID)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "+15550103333", cfg.PhoneNumber)
	assert.Equal(t, "Glow Med Spa", cfg.BusinessName)

	stored, err := voiceConfigs.FindByPhoneNumber(ctx, "+15550103333")
	require.NoError(t, err)
	assert.Equal(t, "tenant-new", stored.TenantID)
	assert.Equal(t, 0, stored.MonthlyMinutesUsed)
	monday, ok := stored.BusinessHours.Data().For(time.Monday)
	require.True(t, ok)
	assert.Equal(t, "09:00", monday.Open)

	active, err := services.FindActive(tenant.WithTenantID(ctx, "tenant-new"))
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Botox", active[0].Name)
}

func TestProvisionVoiceConfig_DuplicateNumber(t *testing.T) {
	p, _, _, ctx := setupProvisioner(t)
	req := ProvisionRequest{TenantID: "tenant-a", PhoneNumber: "+15550104444", BusinessName: "A", AssistantName: "Ava"}

	_, err := p.ProvisionVoiceConfig(ctx, req)
	require.NoError(t, err)

	req.TenantID = "tenant-b"
	_, err = p.ProvisionVoiceConfig(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestProvisionVoiceConfig_Invalid(t *testing.T) {
	p, _, _, ctx := setupProvisioner(t)

	_, err := p.ProvisionVoiceConfig(ctx, ProvisionRequest{TenantID: "tenant-a", PhoneNumber: "+15550104444"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = p.ProvisionVoiceConfig(ctx, ProvisionRequest{TenantID: "tenant-a", PhoneNumber: "call me", BusinessName: "A", AssistantName: "Ava"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = p.ProvisionVoiceConfig(ctx, ProvisionRequest{
		TenantID: "tenant-a", PhoneNumber: "+15550104444", BusinessName: "A", AssistantName: "Ava",
		Services: []ProvisionService{{Name: ""}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestProvisionVoiceConfig_Disabled(t *testing.T) {
	p, voiceConfigs, _, ctx := setupProvisioner(t)

	_, err := p.ProvisionVoiceConfig(ctx, ProvisionRequest{
		TenantID: "tenant-off", PhoneNumber: "+15550105555", BusinessName: "Off", AssistantName: "Ava", Disabled: true,
	})
	require.NoError(t, err)

	stored, err := voiceConfigs.FindByPhoneNumber(ctx, "+15550105555")
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
}
