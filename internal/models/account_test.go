package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleModerator.Valid())
	require.True(t, RoleUser.Valid())
	require.False(t, Role("root").Valid())
	require.False(t, Role("").Valid())
}

// TestAccount_Clone — копия не разделяет указатель на refresh-токен.
func TestAccount_Clone(t *testing.T) {
	t.Parallel()

	tok := "refresh"
	a := &Account{ID: 1, Identity: "a@b.c", StoredRefreshToken: &tok, Role: RoleUser}

	c := a.Clone()
	require.Equal(t, a, c)

	*c.StoredRefreshToken = "changed"
	require.Equal(t, "refresh", *a.StoredRefreshToken)

	var nilAcc *Account
	require.Nil(t, nilAcc.Clone())
}
