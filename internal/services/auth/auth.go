// Package services содержит логику регистрации, входа и проверки сессий.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/jwt"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/password"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

// Ошибки аутентификации.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore хранит отозванные сессии.
type SessionStore interface {
	RevokeSession(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService отвечает за регистрацию, вход и проверку сессионных токенов.
type AuthService struct {
	users    UserRepository
	sessions SessionStore
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, sessions SessionStore, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		jwtMaker: jwtMaker,
	}
}

// Register хеширует пароль и создаёт пользователя.
// Дубликат email возвращается как repository.ErrEmailExists.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*models.User, error) {
	const op = "services.auth.Register"

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, name, email, hashed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Login проверяет пароль и выпускает сессионный токен.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, *models.Session, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, session, err := s.issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, token, session, nil
}

// Authenticate проверяет токен и что сессия не была завершена.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	const op = "services.auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSession, err)
	}
	revoked, err := s.sessions.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSession)
	}
	return sessionFromClaims(claims), nil
}

// Refresh выпускает новый токен для той же сессии с продлённым сроком.
// Старый токен не отзывается и остаётся действительным до своего истечения.
func (s *AuthService) Refresh(_ context.Context, current *models.Session) (string, *models.Session, error) {
	const op = "services.auth.Refresh"

	token, session, err := s.issue(current.UserID, current.Email, current.Name)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	session.PreviousTokenID = current.TokenID
	session.PreviousExpiresAt = current.ExpiresAt
	return token, session, nil
}

// Logout отзывает сессию до истечения её токена. Если сессия была продлена
// в этом же запросе, отзывается и предъявленный токен.
func (s *AuthService) Logout(ctx context.Context, session *models.Session) error {
	const op = "services.auth.Logout"
	if session == nil {
		return nil
	}
	if err := s.sessions.RevokeSession(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if session.PreviousTokenID != "" {
		if err := s.sessions.RevokeSession(ctx, session.PreviousTokenID, session.PreviousExpiresAt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (s *AuthService) issue(userID, email, name string) (string, *models.Session, error) {
	token, claims, err := s.jwtMaker.GenerateToken(userID, email, name)
	if err != nil {
		return "", nil, err
	}
	return token, sessionFromClaims(claims), nil
}

func sessionFromClaims(c *jwt.CustomClaims) *models.Session {
	session := &models.Session{
		UserID:  c.UserID,
		Email:   c.Email,
		Name:    c.Name,
		TokenID: c.ID,
	}
	if c.IssuedAt != nil {
		session.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		session.ExpiresAt = c.ExpiresAt.Time
	}
	return session
}
