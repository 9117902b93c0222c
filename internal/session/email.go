package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/pkg/redact"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// IssueEmailVerificationToken выпускает токен подтверждения e-mail (без scope).
func (s *Service) IssueEmailVerificationToken(identity string) (string, error) {
	const op = "session.email.IssueEmailVerificationToken"

	raw, _, err := s.codec.IssueEmail(normalizeLookup(identity))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return raw, nil
}

// ConfirmEmail подтверждает e-mail по токену. Повторное подтверждение — успех
// без изменений, alreadyConfirmed == true.
func (s *Service) ConfirmEmail(ctx context.Context, raw string) (alreadyConfirmed bool, err error) {
	const op = "session.email.ConfirmEmail"

	lg := log.From(ctx)

	tok, err := s.codec.DecodeEmail(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, ErrUnprocessableToken, err)
	}

	if tok.Expired(s.clock.Now()) {
		return false, fmt.Errorf("%s: %w: %w", op, ErrUnprocessableToken, ErrTokenExpired)
	}

	acc, err := s.store.FindByIdentity(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrVerificationFailed)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	if acc.EmailConfirmed {
		return true, nil
	}

	saved, err := s.store.MarkEmailConfirmed(ctx, acc.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrVerificationFailed)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, saved)

	lg.Info("email_confirmed", slog.String("op", op), slog.Int64("account_id", acc.ID))

	return false, nil
}

// RequestEmail повторно отправляет письмо подтверждения.
// Неизвестный или уже подтверждённый адрес — успех без отправки,
// чтобы ответ не раскрывал наличие записи.
func (s *Service) RequestEmail(ctx context.Context, identity string) error {
	const op = "session.email.RequestEmail"

	lg := log.From(ctx)

	acc, err := s.store.FindByIdentity(ctx, normalizeLookup(identity))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Debug("request_email_unknown", slog.String("op", op), slog.String("identity", redact.Email(identity)))
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if acc.EmailConfirmed {
		return nil
	}

	if err := s.sendVerification(ctx, acc.Identity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) sendVerification(ctx context.Context, identity string) error {
	if s.mailer == nil || s.composer == nil {
		return nil
	}

	raw, err := s.IssueEmailVerificationToken(identity)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, s.composer.Verification(identity, raw))
}
