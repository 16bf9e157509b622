package models

import "time"

// Session данные проверенного сессионного токена.
type Session struct {
	UserID    string
	Email     string
	Name      string
	TokenID   string // jti, по нему сессия отзывается при выходе
	IssuedAt  time.Time
	ExpiresAt time.Time

	// токен, по которому сессия была продлена; при выходе отзывается вместе с текущим
	PreviousTokenID   string
	PreviousExpiresAt time.Time
}
