package models

import "github.com/shopspring/decimal"

// SystemStats сводка для админки.
type SystemStats struct {
	TotalUsers          int64           `db:"total_users" json:"totalUsers"`
	ActiveSubscriptions int64           `db:"active_subscriptions" json:"activeSubscriptions"`
	MonthlyRevenue      decimal.Decimal `db:"monthly_revenue" json:"monthlyRevenue"`
	NewUsersThisMonth   int64           `db:"new_users_this_month" json:"newUsersThisMonth"`
}
