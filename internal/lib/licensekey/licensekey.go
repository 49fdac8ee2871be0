// Package licensekey выпускает и проверяет лицензионные ключи вида XXXX-XXXX-XXXX-XXXX-XXXX-XXXX-XXXX-XXXX.
//
// Ключ это 16 случайных байт в верхнем hex, разбитые на группы по 4 символа.
// Уникальность гарантирует ограничение в базе, а не генератор.
package licensekey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	keyBytes  = 16
	groupSize = 4
)

var keyPattern = regexp.MustCompile(`^[0-9A-F]{4}(-[0-9A-F]{4}){7}$`)

// Generate возвращает новый случайный ключ.
func Generate() (string, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (string, error) {
	const op = "licensekey.Generate"
	buf := make([]byte, keyBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	raw := strings.ToUpper(hex.EncodeToString(buf))

	groups := make([]string, 0, len(raw)/groupSize)
	for i := 0; i < len(raw); i += groupSize {
		groups = append(groups, raw[i:i+groupSize])
	}
	return strings.Join(groups, "-"), nil
}

// Valid проверяет формат ключа.
func Valid(key string) bool {
	return keyPattern.MatchString(key)
}

// Mask скрывает середину ключа для логов: первая и последняя группы остаются видны.
func Mask(key string) string {
	groups := strings.Split(key, "-")
	if len(groups) < 3 {
		return strings.Repeat("*", len(key))
	}
	for i := 1; i < len(groups)-1; i++ {
		groups[i] = strings.Repeat("*", len(groups[i]))
	}
	return strings.Join(groups, "-")
}
