package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/storage"
	"github.com/pribylovaa/photo-sharing/internal/token"
	"github.com/pribylovaa/photo-sharing/mocks"
)

func newCachedSvc(t *testing.T) (*Service, *mocks.MockCredentialStore, *mocks.MockAccountCache, *token.Codec) {
	t.Helper()
	svc, st, codec := newSvc(t)
	c := mocks.NewMockAccountCache(gomock.NewController(t))
	svc.SetAccountCache(c, time.Minute)
	return svc, st, c, codec
}

func TestValidateAccessToken_CacheHit_SkipsStore(t *testing.T) {
	t.Parallel()

	svc, _, c, codec := newCachedSvc(t)
	raw := mustIssue(t, codec, "user@example.com", token.ScopeAccess, time.Minute)

	c.EXPECT().Get(gomock.Any(), "user@example.com").Return(account(1, "user@example.com"), true, nil)

	acc, err := svc.ValidateAccessToken(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, int64(1), acc.ID)
}

func TestValidateAccessToken_CacheMiss_FillsCache(t *testing.T) {
	t.Parallel()

	svc, st, c, codec := newCachedSvc(t)
	raw := mustIssue(t, codec, "user@example.com", token.ScopeAccess, time.Minute)
	acc := account(1, "user@example.com")

	gomock.InOrder(
		c.EXPECT().Get(gomock.Any(), "user@example.com").Return(nil, false, nil),
		st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(acc, nil),
		c.EXPECT().Set(gomock.Any(), acc, time.Minute).Return(nil),
		st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(acc.Clone(), nil),
	)

	got, err := svc.ValidateAccessToken(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, acc, got)
}

// TestValidateAccessToken_ChangedDuringFill_DropsCachedRecord — если роль сменили
// между чтением записи и записью её в кэш, устаревшая запись удаляется из кэша.
func TestValidateAccessToken_ChangedDuringFill_DropsCachedRecord(t *testing.T) {
	t.Parallel()

	svc, st, c, codec := newCachedSvc(t)
	raw := mustIssue(t, codec, "user@example.com", token.ScopeAccess, time.Minute)
	stale := account(1, "user@example.com")
	stale.Role = models.RoleModerator
	stale.UpdatedAt = t0
	fresh := account(1, "user@example.com")
	fresh.UpdatedAt = t0.Add(time.Second)

	gomock.InOrder(
		c.EXPECT().Get(gomock.Any(), "user@example.com").Return(nil, false, nil),
		st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(stale, nil),
		c.EXPECT().Set(gomock.Any(), stale, time.Minute).Return(nil),
		st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(fresh, nil),
		c.EXPECT().Delete(gomock.Any(), "user@example.com").Return(nil),
	)

	got, err := svc.ValidateAccessToken(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, got.Role)
}

// TestValidateAccessToken_DeletedDuringFill — запись удалили после заполнения кэша:
// ключ сбрасывается, токен не принимается.
func TestValidateAccessToken_DeletedDuringFill(t *testing.T) {
	t.Parallel()

	svc, st, c, codec := newCachedSvc(t)
	raw := mustIssue(t, codec, "user@example.com", token.ScopeAccess, time.Minute)
	acc := account(1, "user@example.com")

	gomock.InOrder(
		c.EXPECT().Get(gomock.Any(), "user@example.com").Return(nil, false, nil),
		st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(acc, nil),
		c.EXPECT().Set(gomock.Any(), acc, time.Minute).Return(nil),
		st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound),
		c.EXPECT().Delete(gomock.Any(), "user@example.com").Return(nil),
	)

	_, err := svc.ValidateAccessToken(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateAccessToken_CacheErrors_FallBackToStore(t *testing.T) {
	t.Parallel()

	svc, st, c, codec := newCachedSvc(t)
	raw := mustIssue(t, codec, "user@example.com", token.ScopeAccess, time.Minute)
	acc := account(1, "user@example.com")

	c.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("redis down"))
	st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(acc, nil)
	c.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	got, err := svc.ValidateAccessToken(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
}

func TestLogin_InvalidatesCache(t *testing.T) {
	t.Parallel()

	svc, st, c, _ := newCachedSvc(t)
	acc := account(1, "user@example.com")
	acc.CredentialHash = mustHash(t, "pw")

	st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(acc, nil)
	st.EXPECT().SetRefreshToken(gomock.Any(), int64(1), gomock.Any()).Return(acc, nil)
	c.EXPECT().Delete(gomock.Any(), "user@example.com").Return(nil)

	_, err := svc.Login(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
}

func TestRefreshAccessToken_BypassesCache(t *testing.T) {
	t.Parallel()

	svc, st, _, codec := newCachedSvc(t)
	raw := mustIssue(t, codec, "user@example.com", token.ScopeRefresh, time.Hour)
	acc := account(1, "user@example.com")
	acc.StoredRefreshToken = ptr(raw)

	// Кэш не вызывается: мок без ожиданий упадёт на любом вызове.
	st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(acc, nil)

	pair, err := svc.RefreshAccessToken(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, raw, pair.RefreshToken)
}
