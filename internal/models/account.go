// models содержит доменные сущности photo-sharing.
// Эти типы используются слоями бизнес-логики, хранилища и транспорта.
package models

import "time"

// Role — роль учётной записи.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	default:
		return false
	}
}

// Account — учётная запись пользователя.
//
// Описание:
//   - ID присваивается хранилищем при создании и больше не меняется;
//   - Identity — нормализованный e-mail, уникален;
//   - StoredRefreshToken — единственный действующий refresh-токен, nil если не выдан или отозван;
//   - Role первой созданной записи — admin, всех последующих — user.
type Account struct {
	ID                 int64
	Identity           string
	CredentialHash     string
	StoredRefreshToken *string
	EmailConfirmed     bool
	Role               Role
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Clone возвращает глубокую копию записи.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	c := *a
	if a.StoredRefreshToken != nil {
		tok := *a.StoredRefreshToken
		c.StoredRefreshToken = &tok
	}

	return &c
}
