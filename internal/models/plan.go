package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlanType тип тарифного плана.
type PlanType string

const (
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
	PlanPro     PlanType = "pro"
)

// DefaultCurrency валюта всех платежей.
const DefaultCurrency = "BRL"

// Plan определение тарифа: цена и на сколько дней он продлевает подписку.
type Plan struct {
	Type         PlanType        `json:"type"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	DurationDays int             `json:"durationDays"`
}

var plans = []Plan{
	{Type: PlanBasic, Price: decimal.RequireFromString("19.90"), Currency: DefaultCurrency, DurationDays: 30},
	{Type: PlanPremium, Price: decimal.RequireFromString("39.90"), Currency: DefaultCurrency, DurationDays: 30},
	{Type: PlanPro, Price: decimal.RequireFromString("69.90"), Currency: DefaultCurrency, DurationDays: 30},
}

// Plans возвращает каталог тарифов.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanFor находит тариф по типу.
func PlanFor(t PlanType) (Plan, error) {
	for _, p := range plans {
		if p.Type == t {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrInvalidPlan, t)
}

// PlanByAmount восстанавливает тариф по сумме платежа для старых записей без plan_type.
// Неизвестная сумма считается basic.
func PlanByAmount(amount decimal.Decimal) Plan {
	for _, p := range plans {
		if p.Price.Equal(amount) {
			return p
		}
	}
	return plans[0]
}
