package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/rolegate"
	"github.com/pribylovaa/photo-sharing/internal/storage/memory"
	"github.com/pribylovaa/photo-sharing/internal/token"
)

// Сквозные сценарии поверх in-memory хранилища: полный жизненный цикл сессии.

type fixture struct {
	svc   *Service
	store *memory.Accounts
	codec *token.Codec
	now   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := t0
	clk := clock.Func(func() time.Time { return now })
	store := memory.NewAccounts(clk)
	codec := token.New(testCfg(), clk)

	return &fixture{
		svc:   New(store, testHasher, codec, clk),
		store: store,
		codec: codec,
		now:   &now,
	}
}

func (f *fixture) advance(d time.Duration) { *f.now = f.now.Add(d) }

func (f *fixture) stored(t *testing.T, identity string) *string {
	t.Helper()
	acc, err := f.store.FindByIdentity(context.Background(), identity)
	require.NoError(t, err)
	return acc.StoredRefreshToken
}

func TestScenario_FullSessionLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Register(ctx, "alice@example.com", "alice-pw")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, a.Role)

	b, err := f.svc.Register(ctx, "bob@example.com", "bob-pw")
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, b.Role)

	_, err = f.svc.Register(ctx, "ALICE@example.com", "x")
	require.ErrorIs(t, err, ErrUsernameTaken)

	pair, err := f.svc.Login(ctx, "alice@example.com", "alice-pw")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, pair.RefreshToken, *f.stored(t, "alice@example.com"))

	acc, err := f.svc.ValidateAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", acc.Identity)

	_, err = rolegate.RequireAdmin(acc)
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	decoded, err := f.codec.Decode(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", decoded.Subject)

	// Подмена одного символа: InvalidToken, хранилище не меняется.
	parts := strings.Split(pair.RefreshToken, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = f.svc.RefreshAccessToken(ctx, tampered)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Equal(t, pair.RefreshToken, *f.stored(t, "alice@example.com"))

	// Повторный вход вытесняет старый refresh-токен.
	f.advance(time.Second)
	pair2, err := f.svc.Login(ctx, "alice@example.com", "alice-pw")
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, pair2.RefreshToken)
	require.Equal(t, pair2.RefreshToken, *f.stored(t, "alice@example.com"))

	_, err = f.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
	require.Nil(t, f.stored(t, "alice@example.com"))

	// После отзыва не работает ни один refresh-токен до нового входа.
	_, err = f.svc.RefreshAccessToken(ctx, pair2.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	pair3, err := f.svc.Login(ctx, "alice@example.com", "alice-pw")
	require.NoError(t, err)
	_, err = f.svc.RefreshAccessToken(ctx, pair3.RefreshToken)
	require.NoError(t, err)
}

func TestScenario_AccessTokenExpiresOverTime(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "u@example.com", "pw")
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, "u@example.com", "pw")
	require.NoError(t, err)

	f.advance(15 * time.Minute)
	_, err = f.svc.ValidateAccessToken(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	// refresh-токен ещё жив, выдаёт новый access.
	refreshed, err := f.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.svc.ValidateAccessToken(ctx, refreshed.AccessToken)
	require.NoError(t, err)

	f.advance(7 * 24 * time.Hour)
	_, err = f.svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.Equal(t, pair.RefreshToken, *f.stored(t, "u@example.com"), "истёкший токен не вызывает отзыв")
}

func TestScenario_EmailConfirmation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "u@example.com", "pw")
	require.NoError(t, err)

	raw, err := f.svc.IssueEmailVerificationToken("u@example.com")
	require.NoError(t, err)

	already, err := f.svc.ConfirmEmail(ctx, raw)
	require.NoError(t, err)
	require.False(t, already)

	already, err = f.svc.ConfirmEmail(ctx, raw)
	require.NoError(t, err)
	require.True(t, already)

	acc, err := f.svc.AccountByIdentity(ctx, "u@example.com")
	require.NoError(t, err)
	require.True(t, acc.EmailConfirmed)

	f.advance(7*24*time.Hour + time.Second)
	_, err = f.svc.ConfirmEmail(ctx, raw)
	require.ErrorIs(t, err, ErrUnprocessableToken)
}
