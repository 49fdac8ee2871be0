// Package jwt реализует выпуск и разбор JWT токенов с идентичностью пользователя.
package jwt

import (
	"time"
)

// Maker описывает выпуск и разбор токенов доступа.
type Maker interface {
	GenerateToken(userID int64, username string, isAdmin bool) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 секретным ключом и выдаёт их на tokenTTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
