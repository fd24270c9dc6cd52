package storage

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/voice-receptionist/internal/apperrors"
	"gitlab.com/timkado/api/voice-receptionist/internal/model"
)

func TestSaveAppointmentAssignsID(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := testContext(t, testTenantID)

	appointment := &model.Appointment{
		TenantID:        testTenantID,
		CallID:          "call-booking-1",
		ServiceName:     "Botox",
		ClientName:      "Jane Doe",
		ClientPhone:     "+15551230000",
		ScheduledAt:     time.Date(2026, 10, 20, 14, 30, 0, 0, time.UTC),
		DurationMinutes: 30,
		Status:          model.AppointmentStatusBooked,
		Source:          model.AppointmentSourceVoice,
	}

	require.NoError(t, repo.SaveAppointment(ctx, appointment))
	assert.Len(t, appointment.ID, 36)
}

func TestSaveAppointmentDatabaseError(t *testing.T) {
	mockDB, mock, repo := setupMockDB(t)
	defer mockDB.Close()
	ctx := testContext(t, testTenantID)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "appointments"`)).
		WillReturnError(errors.New("permission denied for table appointments"))
	mock.ExpectRollback()

	err := repo.SaveAppointment(ctx, &model.Appointment{TenantID: testTenantID, ServiceName: "Botox"})
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWebhookFailure(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := testContext(t, "")

	err := repo.SaveWebhookFailure(ctx, model.WebhookFailure{
		EventType:   string(model.EventEndOfCallReport),
		CallID:      "call-failed-1",
		TenantID:    testTenantID,
		PhoneNumber: "+15551234567",
		StatusCode:  500,
		LastError:   "database error: disk full",
		Payload:     datatypes.JSON(`{"message":{"type":"end-of-call-report"}}`),
	})
	assert.NoError(t, err)
}
