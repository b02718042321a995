// Package auth содержит логику регистрации, входа и проверки сессий покупателей.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ebook-store/internal/cache"
	"github.com/magabrotheeeer/ebook-store/internal/lib/jwt"
	"github.com/magabrotheeeer/ebook-store/internal/lib/password"
	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/models"
	"github.com/magabrotheeeer/ebook-store/internal/storage"
)

// MaxLoginAttempts - число неудачных попыток входа за окно cache.LoginWindow, после которого email блокируется.
const MaxLoginAttempts = 5

var (
	// ErrInvalidCredentials - неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken - email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrWeakPassword - пароль короче password.MinLength.
	ErrWeakPassword = errors.New("password too short")
	// ErrLocked - вход временно заблокирован после серии неудачных попыток.
	ErrLocked = errors.New("login temporarily locked")
)

// LockedError сообщает, через сколько можно повторить вход.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrLocked, e.RetryAfter)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrLocked).
func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// UserRepository описывает контракт для работы с профилями в базе данных.
type UserRepository interface {
	CreateProfile(ctx context.Context, p models.Profile) (string, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// AttemptStore хранит счётчики неудачных попыток и блокировки входа.
type AttemptStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Session - результат успешного входа.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

// Service отвечает за регистрацию, вход и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	attempts AttemptStore
	tokenTTL time.Duration
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, attempts AttemptStore, tokenTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		attempts: attempts,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится в profiles.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает покупателя без роли. Пустое отображаемое имя заменяется email.
func (s *Service) Register(ctx context.Context, email, displayName, rawPassword string) (*models.Profile, error) {
	const op = "auth.Register"

	if len([]rune(rawPassword)) < password.MinLength {
		return nil, ErrWeakPassword
	}
	email = NormalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile := models.Profile{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashed,
	}
	id, err := s.users.CreateProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profile.ID = id
	return &profile, nil
}

// Login проверяет пароль и выпускает JWT.
// После MaxLoginAttempts неудач подряд email блокируется на cache.LoginLock.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"
	email = NormalizeEmail(email)

	if err := s.checkLock(ctx, email); err != nil {
		return nil, err
	}

	profile, err := s.users.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.registerFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(profile.PasswordHash, rawPassword); err != nil {
		s.registerFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	if err := s.attempts.Invalidate(ctx, fmt.Sprintf(cache.KeyLoginAttempts, email)); err != nil {
		s.log.Warn("failed to reset login attempts", slog.String("op", op), sl.Err(err))
	}

	token, err := s.jwtMaker.GenerateToken(profile.ID, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL),
		Profile:   profile,
	}, nil
}

// checkLock возвращает *LockedError, если email заблокирован.
// Недоступность Redis не мешает входу.
func (s *Service) checkLock(ctx context.Context, email string) error {
	const op = "auth.checkLock"
	key := fmt.Sprintf(cache.KeyLoginLock, email)

	locked, err := s.attempts.Exists(ctx, key)
	if err != nil {
		s.log.Warn("failed to check login lock", slog.String("op", op), sl.Err(err))
		return nil
	}
	if !locked {
		return nil
	}
	ttl, err := s.attempts.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		ttl = cache.LoginLock
	}
	return &LockedError{RetryAfter: ttl}
}

func (s *Service) registerFailure(ctx context.Context, email string) {
	const op = "auth.registerFailure"
	attemptsKey := fmt.Sprintf(cache.KeyLoginAttempts, email)

	n, err := s.attempts.Incr(ctx, attemptsKey, cache.LoginWindow)
	if err != nil {
		s.log.Warn("failed to count login attempt", slog.String("op", op), sl.Err(err))
		return
	}
	if n < MaxLoginAttempts {
		return
	}
	if err := s.attempts.Set(ctx, fmt.Sprintf(cache.KeyLoginLock, email), "locked", cache.LoginLock); err != nil {
		s.log.Warn("failed to lock login", slog.String("op", op), sl.Err(err))
		return
	}
	if err := s.attempts.Invalidate(ctx, attemptsKey); err != nil {
		s.log.Warn("failed to reset login attempts", slog.String("op", op), sl.Err(err))
	}
	s.log.Info("login locked after repeated failures", slog.String("op", op), slog.Int64("attempts", n))
}

// ValidateToken проверяет JWT и возвращает его claims.
func (s *Service) ValidateToken(token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

// Profile возвращает профиль пользователя.
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "auth.Profile"
	p, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// IsAdmin перечитывает роль пользователя из базы. Отсутствующий профиль не является админом.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	const op = "auth.IsAdmin"
	p, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return p.IsAdmin(), nil
}
