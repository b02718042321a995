package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ebook-store/internal/models"
)

const profileColumns = `id, email, display_name, role, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	var role sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &role, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = stringPtr(role)
	return p, nil
}

// CreateProfile сохраняет новый профиль и возвращает его ID.
// Занятый email возвращает storage.ErrConflict.
func (s *Storage) CreateProfile(ctx context.Context, p models.Profile) (string, error) {
	const op = "storage.CreateProfile"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO profiles (email, display_name, role, password_hash)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		p.Email, p.DisplayName, nullString(p.Role), p.PasswordHash).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return newID, nil
}

// EnsureAdmin создаёт профиль администратора, если email свободен.
// Существующий профиль не меняется: ни роль, ни пароль. created=false означает, что email уже занят.
func (s *Storage) EnsureAdmin(ctx context.Context, email, displayName, passwordHash string) (bool, error) {
	const op = "storage.EnsureAdmin"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id string
	query := `INSERT INTO profiles (email, display_name, role, password_hash)
			  VALUES ($1, $2, 'admin', $3)
			  ON CONFLICT (email) DO NOTHING
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query, email, displayName, passwordHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return true, nil
}

// GetProfileByEmail возвращает профиль по email.
func (s *Storage) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const op = "storage.GetProfileByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// GetProfile возвращает профиль по ID.
func (s *Storage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// CountProfiles возвращает количество зарегистрированных пользователей.
func (s *Storage) CountProfiles(ctx context.Context) (int, error) {
	const op = "storage.CountProfiles"
	return s.count(ctx, op, `SELECT COUNT(*) FROM profiles`)
}
