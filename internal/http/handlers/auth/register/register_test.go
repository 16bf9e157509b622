package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/clevers-schools/internal/models"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(m *AuthServiceMock)
		wantStatusCode int
		wantMessage    string
		wantUser       map[string]any
	}{
		{
			name:        "valid registration",
			requestBody: `{"name":"User One","email":"user1@example.com","password":"password123"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, "User One", "user1@example.com", "password123").
					Return(&models.User{ID: "u1", Name: "User One", Email: "user1@example.com", PasswordHash: "hash"}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantMessage:    "User registered successfully",
			wantUser:       map[string]any{"id": "u1", "name": "User One", "email": "user1@example.com"},
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Invalid request",
		},
		{
			name:           "missing name",
			requestBody:    `{"email":"user1@example.com","password":"password123"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Name, email, and password are required",
		},
		{
			name:           "blank email",
			requestBody:    `{"name":"User One","email":"   ","password":"password123"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Name, email, and password are required",
		},
		{
			name:           "short password",
			requestBody:    `{"name":"User One","email":"user1@example.com","password":"short"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Password must be at least 8 characters long",
		},
		{
			name:           "password too long for bcrypt",
			requestBody:    fmt.Sprintf(`{"name":"User One","email":"user1@example.com","password":%q}`, strings.Repeat("a", 73)),
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Password is too long",
		},
		{
			name:           "malformed email",
			requestBody:    `{"name":"User One","email":"not-an-email","password":"password123"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Invalid email address",
		},
		{
			name:        "duplicate email",
			requestBody: `{"name":"User One","email":"user1@example.com","password":"password123"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("services.auth.Register: %w", repository.ErrEmailExists)).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantMessage:    "User with this email already exists",
		},
		{
			name:        "storage failure",
			requestBody: `{"name":"User One","email":"user1@example.com","password":"password123"}`,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("connection refused")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantMessage:    "Failed to register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(authMock)
			}
			handler := New(newNoopLogger(), authMock)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte(tt.requestBody)))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantMessage, got["message"])

			if tt.wantUser != nil {
				assert.Equal(t, tt.wantUser, got["user"])
				assert.NotContains(t, got["user"], "password")
			} else {
				assert.Nil(t, got["user"])
			}

			authMock.AssertExpectations(t)
		})
	}
}
