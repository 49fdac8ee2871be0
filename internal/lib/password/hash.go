// Package password реализует хеширование и проверку паролей через bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes предел длины пароля у bcrypt.
const MaxBytes = 72

var (
	// ErrMismatch пароль не совпал с хешем.
	ErrMismatch = errors.New("password mismatch")
	// ErrTooLong пароль длиннее MaxBytes байт.
	ErrTooLong = errors.New("password exceeds 72 bytes")
)

// dummyHash заранее посчитанный хеш, с которым сравниваем пароль,
// когда пользователь не найден: время ответа не выдаёт существование логина.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxBytes {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil при совпадении, ErrMismatch при неверном пароле.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CompareDummy тратит на проверку столько же времени, сколько CompareHash, и всегда проваливается.
func CompareDummy(externalPassword string) error {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(externalPassword))
	return fmt.Errorf("password.CompareDummy: %w", ErrMismatch)
}
