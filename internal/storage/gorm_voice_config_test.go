package storage

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

func TestFindVoiceConfigByPhoneNumber(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := testContext(t, "")

	cfg := model.NewVoiceConfig(&model.VoiceConfig{PhoneNumber: "+15551234567", Enabled: true, MonthlyMinutesUsed: 12})
	require.NoError(t, repo.SaveVoiceConfig(ctx, cfg))
	require.NotZero(t, cfg.ID)

	found, err := repo.FindVoiceConfigByPhoneNumber(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, found.ID)
	assert.Equal(t, cfg.TenantID, found.TenantID)
	assert.Equal(t, 12, found.MonthlyMinutesUsed)
	assert.True(t, found.Enabled)
	assert.Equal(t, cfg.BusinessHours.Data(), found.BusinessHours.Data())

	_, err = repo.FindVoiceConfigByPhoneNumber(ctx, "+15550000000")
	assert.ErrorIs(t, err, apperrors.ErrTenantNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindVoiceConfigReturnsDisabledConfigs(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := testContext(t, "")

	cfg := model.NewVoiceConfig(&model.VoiceConfig{PhoneNumber: "+15557654321", Enabled: false})
	require.NoError(t, repo.SaveVoiceConfig(ctx, cfg))

	found, err := repo.FindVoiceConfigByPhoneNumber(ctx, "+15557654321")
	require.NoError(t, err)
	assert.False(t, found.Enabled)
}

func TestSaveVoiceConfigDuplicatePhone(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := testContext(t, "")

	require.NoError(t, repo.SaveVoiceConfig(ctx, model.NewVoiceConfig(&model.VoiceConfig{PhoneNumber: "+15551112222", Enabled: true})))

	err := repo.SaveVoiceConfig(ctx, model.NewVoiceConfig(&model.VoiceConfig{PhoneNumber: "+15551112222", Enabled: true}))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestFindVoiceConfigDatabaseError(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()
	ctx := testContext(t, "")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "voice_configs" WHERE phone_number = $1`)).
		WillReturnError(errors.New("relation \"voice_configs\" does not exist"))

	_, err := repo.FindVoiceConfigByPhoneNumber(ctx, "+15551234567")
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NotErrorIs(t, err, apperrors.ErrTenantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetMonthlyMinutes(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := testContext(t, "")

	first := model.NewVoiceConfig(&model.VoiceConfig{PhoneNumber: "+15553330001", Enabled: true, MonthlyMinutesUsed: 40})
	second := model.NewVoiceConfig(&model.VoiceConfig{PhoneNumber: "+15553330002", Enabled: false, MonthlyMinutesUsed: 7})
	require.NoError(t, repo.SaveVoiceConfig(ctx, first))
	require.NoError(t, repo.SaveVoiceConfig(ctx, second))

	resetAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	rows, err := repo.ResetMonthlyMinutes(ctx, resetAt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	for _, phone := range []string{first.PhoneNumber, second.PhoneNumber} {
		found, err := repo.FindVoiceConfigByPhoneNumber(ctx, phone)
		require.NoError(t, err)
		assert.Zero(t, found.MonthlyMinutesUsed)
		require.NotNil(t, found.MinutesResetAt)
		assert.True(t, resetAt.Equal(*found.MinutesResetAt))
	}
}
