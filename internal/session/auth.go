package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/pkg/redact"
	"github.com/pribylovaa/photo-sharing/internal/storage"
	"github.com/pribylovaa/photo-sharing/internal/token"
)

// revokeTimeout ограничивает запись отзыва, которая выполняется
// даже после отмены контекста запроса.
const revokeTimeout = 5 * time.Second

// Login проверяет пароль, выпускает пару токенов и сохраняет refresh-токен в записи.
// Предыдущий refresh-токен записи перестаёт действовать.
// Проверка подтверждённого e-mail выполняется вызывающим.
func (s *Service) Login(ctx context.Context, identity, secret string) (*models.TokenPair, error) {
	const op = "session.auth.Login"

	lg := log.From(ctx)

	acc, err := s.store.FindByIdentity(ctx, normalizeLookup(identity))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Info("login_failed", slog.String("op", op), slog.String("identity", redact.Email(identity)))
			return nil, fmt.Errorf("%s: %w", op, ErrLoginFailed)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(secret, acc.CredentialHash) {
		lg.Info("login_failed", slog.String("op", op), slog.Int64("account_id", acc.ID))
		return nil, fmt.Errorf("%s: %w", op, ErrLoginFailed)
	}

	access, accessTok, err := s.codec.Issue(acc.Identity, token.ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, _, err := s.codec.Issue(acc.Identity, token.ScopeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.store.SetRefreshToken(ctx, acc.ID, &refresh)
	if err != nil {
		lg.Error("refresh_token_save_failed",
			slog.String("op", op),
			slog.Int64("account_id", acc.ID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, saved)

	lg.Info("login_succeeded", slog.String("op", op), slog.Int64("account_id", acc.ID))

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: accessTok.ExpiresAt,
	}, nil
}

// ValidateAccessToken разбирает access-токен и возвращает запись его владельца.
//
// Ошибки:
//   - подпись/формат: ErrInvalidCredentials + ErrInvalidToken;
//   - чужой scope: ErrInvalidCredentials + ErrScopeMismatch;
//   - истёк срок: ErrTokenExpired;
//   - владелец не найден: ErrInvalidCredentials.
func (s *Service) ValidateAccessToken(ctx context.Context, raw string) (*models.Account, error) {
	const op = "session.auth.ValidateAccessToken"

	tok, err := s.decodeSession(raw, token.ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.lookupAccount(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.From(ctx).Warn("access_subject_not_found", slog.String("op", op))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// RefreshAccessToken выпускает новый access-токен по refresh-токену.
// Сам refresh-токен не ротируется и остаётся действительным до следующего входа.
//
// Если токен разобран, но не совпадает с сохранённым в записи (или сохранённого нет),
// сохранённый токен отзывается и возвращается ErrInvalidRefreshToken. Запись отзыва
// выполняется до возврата ошибки; если она не удалась, ошибка оборачивает обе причины.
func (s *Service) RefreshAccessToken(ctx context.Context, raw string) (*models.TokenPair, error) {
	const op = "session.auth.RefreshAccessToken"

	lg := log.From(ctx)

	tok, err := s.decodeSession(raw, token.ScopeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.store.FindByIdentity(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_subject_not_found", slog.String("op", op))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !sameToken(acc.StoredRefreshToken, raw) {
		lg.Warn("refresh_revoked",
			slog.String("op", op),
			slog.Int64("account_id", acc.ID),
			slog.String("token", redact.Token(raw)),
		)

		if err := s.revoke(ctx, acc.ID); err != nil {
			lg.Error("refresh_revoke_failed",
				slog.String("op", op),
				slog.Int64("account_id", acc.ID),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRefreshToken, err)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	access, accessTok, err := s.codec.Issue(acc.Identity, token.ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    raw,
		AccessExpiresAt: accessTok.ExpiresAt,
	}, nil
}

// Logout отзывает сохранённый refresh-токен записи.
// Остальные поля записи не перезаписываются: acc может быть получен из кэша.
func (s *Service) Logout(ctx context.Context, acc *models.Account) error {
	const op = "session.auth.Logout"

	if acc == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := s.revoke(ctx, acc.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logout", slog.String("op", op), slog.Int64("account_id", acc.ID))

	return nil
}

// decodeSession: декодирование -> scope -> срок действия.
func (s *Service) decodeSession(raw string, want token.Scope) (token.Token, error) {
	tok, err := s.codec.Decode(raw)
	if err != nil {
		return token.Token{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if tok.Scope != want {
		return token.Token{}, fmt.Errorf("%w: %w: got %q", ErrInvalidCredentials, token.ErrScopeMismatch, tok.Scope)
	}

	if tok.Expired(s.clock.Now()) {
		return token.Token{}, ErrTokenExpired
	}

	return tok, nil
}

// revoke очищает сохранённый refresh-токен записи id. Запись не зависит от отмены ctx.
func (s *Service) revoke(ctx context.Context, id int64) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
	defer cancel()

	saved, err := s.store.SetRefreshToken(wctx, id, nil)
	if err != nil {
		return err
	}
	s.invalidate(wctx, saved)

	return nil
}

func sameToken(stored *string, presented string) bool {
	if stored == nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
