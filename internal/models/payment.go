package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus статус платежа.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Valid проверяет, что статус из допустимого набора.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// PaymentMethod способ оплаты.
type PaymentMethod string

const (
	MethodPix    PaymentMethod = "pix"
	MethodCard   PaymentMethod = "card"
	MethodBoleto PaymentMethod = "boleto"
)

// Valid проверяет, что способ оплаты поддерживается.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCard, MethodBoleto:
		return true
	}
	return false
}

// Payment запись о попытке оплаты тарифа. Тариф фиксируется при создании.
type Payment struct {
	ID             int64           `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"userId"`
	SubscriptionID *int64          `db:"subscription_id" json:"subscriptionId"`
	PlanType       PlanType        `db:"plan_type" json:"planType"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Currency       string          `db:"currency" json:"currency"`
	PaymentMethod  PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	Status         PaymentStatus   `db:"status" json:"status"`
	ExternalID     string          `db:"external_id" json:"externalId"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completedAt"`
}

// PaymentInstructions ответ на создание платежа: что показать пользователю для оплаты.
type PaymentInstructions struct {
	PaymentID  int64         `json:"paymentId"`
	Amount     string        `json:"amount"`
	Currency   string        `json:"currency"`
	PixCode    string        `json:"pixCode"`
	QRCodeData string        `json:"qrCodeData"`
	Status     PaymentStatus `json:"status"`
}
