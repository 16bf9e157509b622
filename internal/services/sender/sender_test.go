package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/smtp"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect(ctx context.Context) (smtp.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func expectDelivery(t *MockTransport, to string, bodyContains string) {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	t.On("GetSMTPUser").Return("sender@example.com")
	t.On("Connect", mock.Anything).Return(mockClient, nil).Once()
	mockClient.On("Mail", "sender@example.com").Return(nil).Once()
	mockClient.On("Rcpt", to).Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.MatchedBy(func(p []byte) bool {
		return strings.Contains(string(p), bodyContains)
	})).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
}

func TestSenderService_HandleEvent(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
		invalidEvent  bool
		sentType      string
	}{
		{
			name: "granted event",
			body: `{"type":"granted","userId":"u1","userEmail":"test@example.com","plan":"premium","expiryDate":"2026-06-01T00:00:00Z"}`,
			setupMocks: func(t *MockTransport) {
				expectDelivery(t, "test@example.com", "valid until 1 June 2026")
			},
			sentType: models.EventGranted,
		},
		{
			name: "revoked event",
			body: `{"type":"revoked","userId":"u1","userEmail":"test@example.com","plan":"premium"}`,
			setupMocks: func(t *MockTransport) {
				expectDelivery(t, "test@example.com", "Subject: Your premium access has ended")
			},
			sentType: models.EventRevoked,
		},
		{
			name: "expiring event",
			body: `{"type":"expiring","userId":"u1","userEmail":"test@example.com","plan":"premium","expiryDate":"2026-06-01T10:00:00Z"}`,
			setupMocks: func(t *MockTransport) {
				expectDelivery(t, "test@example.com", "expires tomorrow (1 June 2026)")
			},
			sentType: models.EventExpiring,
		},
		{
			name:          "invalid JSON",
			body:          `invalid json`,
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
			errorMessage:  "invalid event",
			invalidEvent:  true,
		},
		{
			name:          "unknown type",
			body:          `{"type":"renewed","userEmail":"test@example.com"}`,
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
			errorMessage:  "unknown event type",
			invalidEvent:  true,
		},
		{
			name:          "missing recipient",
			body:          `{"type":"granted","userId":"u1"}`,
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
			errorMessage:  "event has no recipient",
			invalidEvent:  true,
		},
		{
			name: "SMTP connection error",
			body: `{"type":"revoked","userId":"u1","userEmail":"test@example.com"}`,
			setupMocks: func(t *MockTransport) {
				t.On("GetSMTPUser").Return("sender@example.com")
				t.On("Connect", mock.Anything).Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			m := metrics.New(prometheus.NewRegistry())
			service := NewSenderService(transport, m, newNoopLogger())

			tt.setupMocks(transport)

			err := service.HandleEvent(context.Background(), []byte(tt.body))

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
				assert.Equal(t, tt.invalidEvent, errors.Is(err, ErrInvalidEvent))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, float64(1), testutil.ToFloat64(m.EmailsSent.WithLabelValues(tt.sentType, "ok")))
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_HandleEvent_RcptFailure(t *testing.T) {
	transport := new(MockTransport)
	mockClient := new(MockSMTPClient)
	m := metrics.New(prometheus.NewRegistry())

	transport.On("GetSMTPUser").Return("sender@example.com")
	transport.On("Connect", mock.Anything).Return(mockClient, nil).Once()
	mockClient.On("Mail", "sender@example.com").Return(nil).Once()
	mockClient.On("Rcpt", "test@example.com").Return(errors.New("mailbox unavailable")).Once()
	mockClient.On("Close").Return(nil).Once()

	service := NewSenderService(transport, m, newNoopLogger())
	err := service.HandleEvent(context.Background(), []byte(`{"type":"expiring","userEmail":"test@example.com"}`))

	assert.ErrorContains(t, err, "mailbox unavailable")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EmailsSent.WithLabelValues(models.EventExpiring, "error")))
	transport.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}
