package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/timkado/api/voice-receptionist/internal/notify"
)

// SenderMock is a mock implementation of notify.Sender
type SenderMock struct {
	mock.Mock
}

// Ensure SenderMock implements notify.Sender
var _ notify.Sender = (*SenderMock)(nil)

// Send mocks the Send method
func (m *SenderMock) Send(ctx context.Context, email notify.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
