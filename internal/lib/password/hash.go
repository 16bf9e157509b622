// Package password хеширует и проверяет пароли пользователей с помощью bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength минимальная длина пароля при регистрации.
const MinLength = 8

// Cost стоимость bcrypt.
const Cost = 12

// ErrMismatch пароль не соответствует хешу.
var ErrMismatch = errors.New("password mismatch")

// Hash возвращает bcrypt-хеш пароля для хранения в базе.
func Hash(plain string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare сверяет хеш с паролем. Несовпадение возвращается как ErrMismatch,
// повреждённый хеш как обычная ошибка.
func Compare(hash, plain string) error {
	const op = "password.Compare"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
