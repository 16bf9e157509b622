// Package models содержит доменные структуры сервиса: пользователей,
// подписки, файлы хранилища и события жизненного цикла подписки.
package models

import "time"

// User представляет зарегистрированного пользователя.
type User struct {
	ID           string    // UUID пользователя
	Name         string    // Отображаемое имя
	Email        string    // Email в нижнем регистре, уникален
	PasswordHash string    // bcrypt-хеш пароля
	CreatedAt    time.Time // Дата регистрации
}

// PublicUser представление пользователя без учётных данных.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public отдаёт публичную часть записи пользователя.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserWithStatus строка админского списка пользователей.
type UserWithStatus struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	IsPremium  bool       `json:"isPremium"`
	ExpiryDate *time.Time `json:"expiryDate"`
	CreatedAt  time.Time  `json:"createdAt"`
	Plan       string     `json:"plan"`
}
