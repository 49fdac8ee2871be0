// Package models содержит доменные структуры портала: пользователей, подписки,
// платежи, сессии бота и агрегированную статистику.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
// Пароль хранится только в виде bcrypt-хеша и никогда не уходит наружу.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
}

// UserWithSubscription пользователь вместе с его активной подпиской (nil, если её нет).
type UserWithSubscription struct {
	User
	Subscription *Subscription `json:"subscription"`
}

// Identity идентичность автора запроса, извлечённая из токена доступа.
type Identity struct {
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}
