package models

import "time"

// SubscriptionStatus статус подписки в хранилище.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Valid проверяет, что статус из допустимого набора.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionExpired, SubscriptionCancelled:
		return true
	}
	return false
}

// Subscription право пользователя на доступ к боту до ExpiresAt.
// LicenseKey уникален и не меняется после выдачи.
type Subscription struct {
	ID         int64              `db:"id" json:"id"`
	UserID     int64              `db:"user_id" json:"userId"`
	PlanType   PlanType           `db:"plan_type" json:"planType"`
	Status     SubscriptionStatus `db:"status" json:"status"`
	ExpiresAt  time.Time          `db:"expires_at" json:"expiresAt"`
	CreatedAt  time.Time          `db:"created_at" json:"createdAt"`
	LicenseKey string             `db:"license_key" json:"licenseKey"`
}

// IsActive подписка активна, только если статус active и срок ещё не истёк.
// Именно этот предикат, а не колонка status, решает вопросы доступа.
func (s *Subscription) IsActive(now time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && s.ExpiresAt.After(now)
}

// ExpiringNotice данные для письма о скором окончании подписки.
type ExpiringNotice struct {
	SubscriptionID int64     `db:"subscription_id" json:"subscriptionId"`
	UserID         int64     `db:"user_id" json:"userId"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PlanType       PlanType  `db:"plan_type" json:"planType"`
	ExpiresAt      time.Time `db:"expires_at" json:"expiresAt"`
}
