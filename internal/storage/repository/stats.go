package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

// SystemStats считает агрегаты для админки одним запросом.
// now граница активности подписок, monthStart начало текущего месяца.
func (s *Storage) SystemStats(ctx context.Context, now, monthStart time.Time) (*models.SystemStats, error) {
	const op = "storage.SystemStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      (SELECT COUNT(*) FROM users) AS total_users,
			      (SELECT COUNT(*) FROM subscriptions
			       WHERE status = 'active' AND expires_at > $1) AS active_subscriptions,
			      (SELECT COALESCE(SUM(amount), 0) FROM payments
			       WHERE status = 'completed' AND completed_at >= $2) AS monthly_revenue,
			      (SELECT COUNT(*) FROM users WHERE created_at >= $2) AS new_users_this_month`
	var stats models.SystemStats
	if err := s.conn(ctx).GetContext(ctx, &stats, query, now, monthStart); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}
