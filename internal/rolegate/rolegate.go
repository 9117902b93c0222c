// rolegate проверяет принадлежность учётной записи к набору ролей.
// Функции пакета чистые и не имеют побочных эффектов.
package rolegate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pribylovaa/photo-sharing/internal/models"
)

// ErrForbidden — роль записи не входит в разрешённый набор.
var ErrForbidden = errors.New("forbidden")

var (
	adminOnly          = []models.Role{models.RoleAdmin}
	adminsOrModerators = []models.Role{models.RoleAdmin, models.RoleModerator}
)

// RequireRole возвращает запись без изменений, если её роль входит в allowed.
func RequireRole(acc *models.Account, allowed ...models.Role) (*models.Account, error) {
	const op = "rolegate.RequireRole"

	if acc == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if !slices.Contains(allowed, acc.Role) {
		return nil, fmt.Errorf("%s: %w: role %q", op, ErrForbidden, acc.Role)
	}

	return acc, nil
}

// RequireAdmin — только admin.
func RequireAdmin(acc *models.Account) (*models.Account, error) {
	return RequireRole(acc, adminOnly...)
}

// RequireModerator — admin или moderator.
func RequireModerator(acc *models.Account) (*models.Account, error) {
	return RequireRole(acc, adminsOrModerators...)
}
