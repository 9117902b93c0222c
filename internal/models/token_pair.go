package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе.
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для выпуска новых access-токенов, хранится в записи аккаунта.
	RefreshToken string
	// AccessExpiresAt — время истечения access-токена (UTC).
	AccessExpiresAt time.Time
}
