package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/pkg/redact"
	"github.com/pribylovaa/photo-sharing/internal/rolegate"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// Register создаёт учётную запись. Первая запись в хранилище получает роль admin.
// Если настроен mailer, отправляет письмо подтверждения; ошибка отправки только логируется.
func (s *Service) Register(ctx context.Context, identity, secret string) (*models.Account, error) {
	const op = "session.register.Register"

	lg := log.From(ctx)

	norm, err := normalizeIdentity(identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if secret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}

	_, err = s.store.FindByIdentity(ctx, norm)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.store.Create(ctx, norm, hash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("account_registered",
		slog.String("op", op),
		slog.Int64("account_id", acc.ID),
		slog.String("role", string(acc.Role)),
	)

	if err := s.sendVerification(ctx, acc.Identity); err != nil {
		lg.Error("verification_mail_failed",
			slog.String("op", op),
			slog.String("identity", redact.Email(acc.Identity)),
			slog.String("err", err.Error()),
		)
	}

	return acc, nil
}

// AccountByIdentity возвращает запись по identity (предпроверки входа).
func (s *Service) AccountByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	const op = "session.register.AccountByIdentity"

	acc, err := s.store.FindByIdentity(ctx, normalizeLookup(identity))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// SetRole меняет роль записи target. Доступно только admin.
func (s *Service) SetRole(ctx context.Context, actor *models.Account, targetID int64, role models.Role) (*models.Account, error) {
	const op = "session.register.SetRole"

	if _, err := rolegate.RequireAdmin(actor); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !role.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidRole, role)
	}

	saved, err := s.store.SetRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, saved)

	log.From(ctx).Info("role_changed",
		slog.String("op", op),
		slog.Int64("actor_id", actor.ID),
		slog.Int64("account_id", saved.ID),
		slog.String("role", string(saved.Role)),
	)

	return saved, nil
}

// normalizeIdentity проверяет формат e-mail и приводит его к нижнему регистру.
// Адреса с отображаемым именем ("Name <a@b.c>") не принимаются.
func normalizeIdentity(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidIdentity
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidIdentity
	}

	return strings.ToLower(email), nil
}

// normalizeLookup — нормализация для поиска без проверки формата.
func normalizeLookup(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
