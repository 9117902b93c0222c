// session содержит бизнес-логику учётных записей и сессий:
// регистрацию, вход, проверку access-токенов, обновление по refresh-токену
// с отзывом при несовпадении и подтверждение e-mail.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; единственный разделяемый ресурс —
//     storage.CredentialStore, в записи которого лежит ровно один действующий refresh-токен;
//   - ошибки — sentinel-значения пакета; часть ошибок оборачивает сразу две причины
//     (например, ErrInvalidCredentials и token.ErrScopeMismatch), обе доступны через errors.Is;
//   - транспорт маппит ошибки на HTTP-статусы (см. internal/transport/http/errors).
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pribylovaa/photo-sharing/internal/cache"
	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/hasher"
	"github.com/pribylovaa/photo-sharing/internal/mail"
	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/storage"
	"github.com/pribylovaa/photo-sharing/internal/token"
)

var (
	// ErrInvalidCredentials — токен не прошёл проверку или его subject не найден. HTTP 401.
	ErrInvalidCredentials = errors.New("could not validate credentials")
	// ErrTokenExpired — токен валиден, но срок действия истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")
	// ErrLoginFailed — неизвестный identity или неверный пароль (не различаются). HTTP 401.
	ErrLoginFailed = errors.New("invalid credentials")
	// ErrInvalidRefreshToken — refresh-токен не совпал с сохранённым; сохранённый отозван. HTTP 401.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUnprocessableToken — токен подтверждения e-mail не разобран или истёк. HTTP 422.
	ErrUnprocessableToken = errors.New("invalid token for email verification")
	// ErrVerificationFailed — токен подтверждения ссылается на несуществующую запись. HTTP 400.
	ErrVerificationFailed = errors.New("verification error")
	// ErrUsernameTaken — identity уже зарегистрирован. HTTP 409.
	ErrUsernameTaken = errors.New("account already exists")
	// ErrInvalidIdentity — identity не является e-mail адресом. HTTP 400.
	ErrInvalidIdentity = errors.New("invalid email")
	// ErrEmptySecret — пустой пароль. HTTP 400.
	ErrEmptySecret = errors.New("password is empty")
	// ErrAccountNotFound — запись не найдена (админские операции, предпроверки входа). HTTP 404/401.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidRole — неизвестная роль. HTTP 400.
	ErrInvalidRole = errors.New("invalid role")

	// Причины уровня кодека, доступные вызывающим через errors.Is.
	ErrInvalidToken  = token.ErrInvalidToken
	ErrScopeMismatch = token.ErrScopeMismatch
)

// Service описывает бизнес-логику сессий.
type Service struct {
	store  storage.CredentialStore
	hasher hasher.Hasher
	codec  *token.Codec
	clock  clock.Clock

	mailer   mail.Sender    // может быть nil, тогда письма не отправляются
	composer *mail.Composer // используется вместе с mailer

	cache    cache.AccountCache // может быть nil
	cacheTTL time.Duration
}

// New создаёт Service. Все зависимости передаются явно.
func New(store storage.CredentialStore, h hasher.Hasher, codec *token.Codec, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}

	return &Service{
		store:  store,
		hasher: h,
		codec:  codec,
		clock:  clk,
	}
}

// SetMailer включает отправку писем подтверждения (опционально).
func (s *Service) SetMailer(sender mail.Sender, composer *mail.Composer) {
	s.mailer = sender
	s.composer = composer
}

// SetAccountCache включает кэш учётных записей для проверки access-токенов (опционально).
func (s *Service) SetAccountCache(c cache.AccountCache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// lookupAccount ищет запись для проверки access-токена: сначала кэш, затем хранилище.
// Ошибки кэша не прерывают запрос. После записи в кэш запись перечитывается:
// если её успели изменить между чтением и Set, ключ удаляется.
func (s *Service) lookupAccount(ctx context.Context, identity string) (*models.Account, error) {
	const op = "session.service.lookupAccount"

	if s.cache == nil {
		return s.store.FindByIdentity(ctx, identity)
	}

	lg := log.From(ctx)

	acc, ok, err := s.cache.Get(ctx, identity)
	if err != nil {
		lg.Warn("account_cache_get_failed", slog.String("op", op), slog.String("err", err.Error()))
	} else if ok {
		return acc, nil
	}

	acc, err = s.store.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, acc, s.cacheTTL); err != nil {
		lg.Warn("account_cache_set_failed", slog.String("op", op), slog.String("err", err.Error()))
		return acc, nil
	}

	fresh, err := s.store.FindByIdentity(ctx, identity)
	if err != nil {
		s.invalidate(ctx, acc)
		return nil, err
	}
	if !sameCachedState(acc, fresh) {
		lg.Debug("account_cache_stale_dropped", slog.String("op", op), slog.Int64("account_id", acc.ID))
		s.invalidate(ctx, fresh)
	}

	return fresh, nil
}

// sameCachedState сравнивает поля, которые влияют на проверку access-токена.
func sameCachedState(a, b *models.Account) bool {
	return a.ID == b.ID &&
		a.Role == b.Role &&
		a.EmailConfirmed == b.EmailConfirmed &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

// invalidate сбрасывает кэш записи после её изменения в хранилище.
func (s *Service) invalidate(ctx context.Context, acc *models.Account) {
	if s.cache == nil || acc == nil {
		return
	}

	if err := s.cache.Delete(ctx, acc.Identity); err != nil {
		log.From(ctx).Warn("account_cache_delete_failed",
			slog.String("op", "session.service.invalidate"),
			slog.Int64("account_id", acc.ID),
			slog.String("err", err.Error()),
		)
	}
}
