package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/clevers-schools/internal/lib/jwt"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/password"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	services "github.com/magabrotheeeer/clevers-schools/internal/services/auth"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, name, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для SessionStore
type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) RevokeSession(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

func (m *SessionStoreMock) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newService(repo *UserRepoMock, store *SessionStoreMock) (*services.AuthService, *customjwt.MakerImpl) {
	maker := customjwt.NewJWTMaker("test-secret", 30*24*time.Hour)
	return services.NewAuthService(repo, store, maker), maker
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock)
		wantErr    error
		anyErr     bool
	}{
		{
			name: "successful registration",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, "Jane", "jane@example.com", mock.MatchedBy(func(hash string) bool {
					return password.Compare(hash, "password123") == nil
				})).Return(&models.User{ID: "u1", Name: "Jane", Email: "jane@example.com"}, nil).Once()
			},
		},
		{
			name: "duplicate email",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, repository.ErrEmailExists).Once()
			},
			wantErr: repository.ErrEmailExists,
		},
		{
			name: "repository error",
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc, _ := newService(repo, new(SessionStoreMock))
			tt.setupMocks(repo)

			user, err := svc.Register(context.Background(), "Jane", "jane@example.com", "password123")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, "u1", user.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.Hash("correctpassword")
	require.NoError(t, err)
	stored := &models.User{ID: "u1", Name: "Jane", Email: "jane@example.com", PasswordHash: hash}

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "successful login",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(stored, nil).Once()
			},
		},
		{
			name:     "wrong password",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(stored, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(nil, repository.ErrUserNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc, maker := newService(repo, new(SessionStoreMock))
			tt.setupMocks(repo)

			user, token, session, err := svc.Login(context.Background(), "jane@example.com", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.Equal(t, "u1", session.UserID)
			assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), session.ExpiresAt, time.Minute)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, "jane@example.com", claims.Email)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := new(UserRepoMock)
	store := new(SessionStoreMock)
	svc, maker := newService(repo, store)

	token, claims, err := maker.GenerateToken("u1", "jane@example.com", "Jane")
	require.NoError(t, err)

	t.Run("valid session", func(t *testing.T) {
		store.On("IsSessionRevoked", mock.Anything, claims.ID).Return(false, nil).Once()

		session, err := svc.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "u1", session.UserID)
		assert.Equal(t, "jane@example.com", session.Email)
		assert.Equal(t, claims.ID, session.TokenID)
	})

	t.Run("revoked session", func(t *testing.T) {
		store.On("IsSessionRevoked", mock.Anything, claims.ID).Return(true, nil).Once()

		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, services.ErrInvalidSession)
	})

	t.Run("store failure", func(t *testing.T) {
		store.On("IsSessionRevoked", mock.Anything, claims.ID).Return(false, errors.New("redis down")).Once()

		_, err := svc.Authenticate(context.Background(), token)
		require.Error(t, err)
		assert.NotErrorIs(t, err, services.ErrInvalidSession)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, services.ErrInvalidSession)
	})

	store.AssertExpectations(t)
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	store := new(SessionStoreMock)
	svc, maker := newService(new(UserRepoMock), store)

	current := &models.Session{
		UserID:    "u1",
		Email:     "jane@example.com",
		TokenID:   "old-jti",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	token, session, err := svc.Refresh(context.Background(), current)
	require.NoError(t, err)
	assert.NotEqual(t, "old-jti", session.TokenID)
	assert.Equal(t, "old-jti", session.PreviousTokenID)
	store.AssertNotCalled(t, "RevokeSession", mock.Anything, mock.Anything, mock.Anything)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	store.On("RevokeSession", mock.Anything, session.TokenID, session.ExpiresAt).Return(nil).Once()
	store.On("RevokeSession", mock.Anything, "old-jti", current.ExpiresAt).Return(nil).Once()
	require.NoError(t, svc.Logout(context.Background(), session))

	assert.NoError(t, svc.Logout(context.Background(), nil))
	store.AssertExpectations(t)
}

func TestAuthService_LogoutWithoutRefresh(t *testing.T) {
	store := new(SessionStoreMock)
	svc, _ := newService(new(UserRepoMock), store)

	session := &models.Session{UserID: "u1", TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}
	store.On("RevokeSession", mock.Anything, "jti-1", session.ExpiresAt).Return(nil).Once()

	require.NoError(t, svc.Logout(context.Background(), session))
	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "RevokeSession", 1)
}
