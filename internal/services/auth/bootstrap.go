package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/ebook-store/internal/lib/password"
)

// AdminStore создаёт первого администратора.
type AdminStore interface {
	EnsureAdmin(ctx context.Context, email, displayName, passwordHash string) (bool, error)
}

// BootstrapAdmin создаёт администратора из конфигурации при первом запуске.
// Пустой email отключает создание. Уже существующий профиль с этим email не трогается.
func BootstrapAdmin(ctx context.Context, store AdminStore, email, rawPassword string, log *slog.Logger) error {
	const op = "auth.BootstrapAdmin"

	email = NormalizeEmail(email)
	if email == "" {
		log.Info("admin bootstrap disabled", slog.String("op", op))
		return nil
	}
	if len([]rune(rawPassword)) < password.MinLength {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	created, err := store.EnsureAdmin(ctx, email, email, hashed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if created {
		log.Info("admin profile created", slog.String("op", op), slog.String("email", email))
	} else {
		log.Info("admin profile already exists", slog.String("op", op), slog.String("email", email))
	}
	return nil
}
