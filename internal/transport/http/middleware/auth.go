package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/rolegate"
	apierrors "github.com/pribylovaa/photo-sharing/internal/transport/http/errors"
)

// AccessValidator разрешает access-токен в учётную запись.
type AccessValidator interface {
	ValidateAccessToken(ctx context.Context, raw string) (*models.Account, error)
}

// BearerToken извлекает токен из заголовка Authorization: Bearer <token>.
func BearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}

	tok := strings.TrimSpace(auth[len(prefix):])

	return tok, tok != ""
}

// Authenticate проверяет Bearer access-токен и кладёт учётную запись в контекст.
// Нет токена — 401 unauthenticated; ошибка проверки — ответ по таблице errors.
func Authenticate(v AccessValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
				return
			}

			acc, err := v.ValidateAccessToken(r.Context(), raw)
			if err != nil {
				log.From(r.Context()).Info("auth_rejected",
					slog.String("op", "middleware.auth.Authenticate"),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := log.With(WithAccount(r.Context(), acc), slog.Int64("account_id", acc.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает запрос, только если роль записи из контекста входит в allowed.
// Ставится после Authenticate.
func RequireRole(allowed ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := rolegate.RequireRole(AccountFrom(r.Context()), allowed...); err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AccountFrom возвращает учётную запись, положенную Authenticate, или nil.
func AccountFrom(ctx context.Context) *models.Account {
	acc, _ := ctx.Value(ctxAccount).(*models.Account)
	return acc
}

// WithAccount кладёт учётную запись в контекст.
func WithAccount(ctx context.Context, acc *models.Account) context.Context {
	return context.WithValue(ctx, ctxAccount, acc)
}
