package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/mail"
	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/rolegate"
	"github.com/pribylovaa/photo-sharing/internal/storage"
	"github.com/pribylovaa/photo-sharing/internal/token"
	"github.com/pribylovaa/photo-sharing/mocks"
)

func TestRegister_OK_SendsVerification(t *testing.T) {
	t.Parallel()

	svc, st, codec := newSvc(t)
	sender := mocks.NewMockSender(gomock.NewController(t))
	svc.SetMailer(sender, mail.NewComposer(config.MailConfig{From: "noreply@ps", BaseURL: "http://ps"}))

	st.EXPECT().FindByIdentity(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().Create(gomock.Any(), "user@example.com", gomock.Any()).DoAndReturn(
		func(_ context.Context, identity, hash string) (*models.Account, error) {
			require.True(t, testHasher.Verify("pw", hash))
			return &models.Account{ID: 1, Identity: identity, CredentialHash: hash, Role: models.RoleAdmin}, nil
		})
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg mail.Message) error {
			require.Equal(t, "user@example.com", msg.To)
			i := strings.Index(msg.Body, "/confirmed_email/")
			require.Positive(t, i)
			raw := strings.Fields(msg.Body[i+len("/confirmed_email/"):])[0]
			tok, err := codec.DecodeEmail(raw)
			require.NoError(t, err)
			require.Equal(t, "user@example.com", tok.Subject)
			return nil
		})

	acc, err := svc.Register(context.Background(), "  User@Example.com ", "pw")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, acc.Role)
}

func TestRegister_MailFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	sender := mocks.NewMockSender(gomock.NewController(t))
	svc.SetMailer(sender, mail.NewComposer(config.MailConfig{}))

	st.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
	st.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.Account{ID: 2, Identity: "u@example.com", Role: models.RoleUser}, nil)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	_, err := svc.Register(context.Background(), "u@example.com", "pw")
	require.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)

	for _, bad := range []string{"", "   ", "not-an-email", "Name <a@b.c>", "a@"} {
		_, err := svc.Register(context.Background(), bad, "pw")
		require.ErrorIs(t, err, ErrInvalidIdentity, bad)
	}

	_, err := svc.Register(context.Background(), "u@example.com", "")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestRegister_Taken(t *testing.T) {
	t.Parallel()

	t.Run("on_lookup", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().FindByIdentity(gomock.Any(), "u@example.com").Return(account(1, "u@example.com"), nil)

		_, err := svc.Register(context.Background(), "u@example.com", "pw")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("on_create_race", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
		st.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storage.ErrAlreadyExists)

		_, err := svc.Register(context.Background(), "u@example.com", "pw")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("lookup_error", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		dbErr := errors.New("db down")
		st.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(nil, dbErr)

		_, err := svc.Register(context.Background(), "u@example.com", "pw")
		require.ErrorIs(t, err, dbErr)
	})
}

func TestAccountByIdentity(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	st.EXPECT().FindByIdentity(gomock.Any(), "u@example.com").Return(account(1, "u@example.com"), nil)
	st.EXPECT().FindByIdentity(gomock.Any(), "x@example.com").Return(nil, storage.ErrNotFound)

	acc, err := svc.AccountByIdentity(context.Background(), "U@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), acc.ID)

	_, err = svc.AccountByIdentity(context.Background(), "x@example.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetRole(t *testing.T) {
	t.Parallel()

	admin := &models.Account{ID: 1, Role: models.RoleAdmin}

	t.Run("ok", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		upd := account(2, "u@example.com")
		upd.Role = models.RoleModerator
		st.EXPECT().SetRole(gomock.Any(), int64(2), models.RoleModerator).Return(upd, nil)

		got, err := svc.SetRole(context.Background(), admin, 2, models.RoleModerator)
		require.NoError(t, err)
		require.Equal(t, models.RoleModerator, got.Role)
	})

	t.Run("not_admin", func(t *testing.T) {
		svc, _, _ := newSvc(t)
		_, err := svc.SetRole(context.Background(), &models.Account{ID: 3, Role: models.RoleModerator}, 2, models.RoleAdmin)
		require.ErrorIs(t, err, rolegate.ErrForbidden)
	})

	t.Run("bad_role", func(t *testing.T) {
		svc, _, _ := newSvc(t)
		_, err := svc.SetRole(context.Background(), admin, 2, "root")
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("missing_target", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().SetRole(gomock.Any(), int64(9), models.RoleUser).Return(nil, storage.ErrNotFound)
		_, err := svc.SetRole(context.Background(), admin, 9, models.RoleUser)
		require.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestConfirmEmail(t *testing.T) {
	t.Parallel()

	t.Run("confirms_once", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		raw, err := svc.IssueEmailVerificationToken("u@example.com")
		require.NoError(t, err)

		acc := account(1, "u@example.com")
		acc.EmailConfirmed = false
		st.EXPECT().FindByIdentity(gomock.Any(), "u@example.com").Return(acc, nil)
		st.EXPECT().MarkEmailConfirmed(gomock.Any(), int64(1)).Return(account(1, "u@example.com"), nil)

		already, err := svc.ConfirmEmail(context.Background(), raw)
		require.NoError(t, err)
		require.False(t, already)
	})

	t.Run("already_confirmed_is_noop", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		raw, err := svc.IssueEmailVerificationToken("u@example.com")
		require.NoError(t, err)

		st.EXPECT().FindByIdentity(gomock.Any(), "u@example.com").Return(account(1, "u@example.com"), nil)

		already, err := svc.ConfirmEmail(context.Background(), raw)
		require.NoError(t, err)
		require.True(t, already)
	})

	t.Run("unprocessable", func(t *testing.T) {
		svc, _, codec := newSvc(t)

		expired, _, err := token.New(testCfg(), clock.Fixed(t0.Add(-8*24*time.Hour))).IssueEmail("u@example.com")
		require.NoError(t, err)

		for name, raw := range map[string]string{
			"garbage":       "garbage",
			"session_token": mustIssue(t, codec, "u@example.com", token.ScopeAccess, time.Hour),
			"expired":       expired,
		} {
			_, err := svc.ConfirmEmail(context.Background(), raw)
			require.ErrorIs(t, err, ErrUnprocessableToken, name)
		}
	})

	t.Run("unknown_account", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		raw, err := svc.IssueEmailVerificationToken("gone@example.com")
		require.NoError(t, err)
		st.EXPECT().FindByIdentity(gomock.Any(), "gone@example.com").Return(nil, storage.ErrNotFound)

		_, err = svc.ConfirmEmail(context.Background(), raw)
		require.ErrorIs(t, err, ErrVerificationFailed)
	})
}

func TestRequestEmail(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	sender := mocks.NewMockSender(gomock.NewController(t))
	svc.SetMailer(sender, mail.NewComposer(config.MailConfig{}))

	unconfirmed := account(1, "u@example.com")
	unconfirmed.EmailConfirmed = false

	st.EXPECT().FindByIdentity(gomock.Any(), "u@example.com").Return(unconfirmed, nil)
	st.EXPECT().FindByIdentity(gomock.Any(), "c@example.com").Return(account(2, "c@example.com"), nil)
	st.EXPECT().FindByIdentity(gomock.Any(), "x@example.com").Return(nil, storage.ErrNotFound)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	require.NoError(t, svc.RequestEmail(context.Background(), "u@example.com"))
	require.NoError(t, svc.RequestEmail(context.Background(), "c@example.com"))
	require.NoError(t, svc.RequestEmail(context.Background(), "x@example.com"))
}
