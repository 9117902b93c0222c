package rolegate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/photo-sharing/internal/models"
)

func acc(role models.Role) *models.Account {
	return &models.Account{ID: 7, Identity: "u@example.com", Role: role, EmailConfirmed: true}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	admin := acc(models.RoleAdmin)
	got, err := RequireAdmin(admin)
	require.NoError(t, err)
	require.Same(t, admin, got)

	for _, r := range []models.Role{models.RoleModerator, models.RoleUser, ""} {
		_, err := RequireAdmin(acc(r))
		require.ErrorIs(t, err, ErrForbidden, string(r))
	}
}

func TestRequireModerator(t *testing.T) {
	t.Parallel()

	for _, r := range []models.Role{models.RoleAdmin, models.RoleModerator} {
		_, err := RequireModerator(acc(r))
		require.NoError(t, err)
	}

	_, err := RequireModerator(acc(models.RoleUser))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRequireRole_EdgeCases(t *testing.T) {
	t.Parallel()

	_, err := RequireRole(nil, models.RoleUser)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = RequireRole(acc(models.RoleAdmin))
	require.ErrorIs(t, err, ErrForbidden, "пустой набор ролей ничего не пропускает")

	got, err := RequireRole(acc(models.RoleUser), models.RoleUser)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, got.Role)
}
