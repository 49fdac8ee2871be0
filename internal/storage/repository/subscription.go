package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

const subscriptionColumns = `id, user_id, plan_type, status, expires_at, created_at, license_key`

// CreateSubscription создаёт активную подписку с переданным ключом.
// Коллизия ключа возвращается как models.ErrAlreadyExists, вызывающий генерирует новый ключ.
func (s *Storage) CreateSubscription(ctx context.Context, userID int64, plan models.PlanType,
	expiresAt time.Time, licenseKey string) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_type, status, expires_at, license_key)
			  VALUES ($1, $2, 'active', $3, $4)
			  ON CONFLICT (license_key) DO NOTHING
			  RETURNING ` + subscriptionColumns
	var sub models.Subscription
	err := s.conn(ctx).GetContext(ctx, &sub, query, userID, string(plan), expiresAt, licenseKey)
	if err != nil {
		err = mapError(err)
		if errors.Is(err, models.ErrNotFound) {
			// ON CONFLICT DO NOTHING не вернул строку: ключ уже занят.
			return nil, fmt.Errorf("%s: license key: %w", op, models.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// GetActiveSubscription возвращает самую свежую подписку со статусом active и expires_at > now.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID int64, now time.Time) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1 AND status = 'active' AND expires_at > $2
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	var sub models.Subscription
	if err := s.conn(ctx).GetContext(ctx, &sub, query, userID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}

// GetLatestSubscription возвращает последнюю созданную подписку пользователя в любом статусе.
func (s *Storage) GetLatestSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.GetLatestSubscription"
	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	var sub models.Subscription
	if err := s.conn(ctx).GetContext(ctx, &sub, query, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}

// ExtendLatestSubscription одним UPDATE продлевает последнюю подписку пользователя:
// expires_at = max(expires_at, now) + days суток, статус становится active.
// Непустой plan заменяет тариф подписки. Нет подписки: models.ErrNotFound.
func (s *Storage) ExtendLatestSubscription(ctx context.Context, userID int64, days int,
	plan models.PlanType, now time.Time) (*models.Subscription, error) {
	const op = "storage.ExtendLatestSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET expires_at = GREATEST(expires_at, $2) + ($3::int * INTERVAL '24 hours'),
			      status = 'active',
			      plan_type = COALESCE(NULLIF($4::text, ''), plan_type)
			  WHERE id = (
			      SELECT id FROM subscriptions
			      WHERE user_id = $1
			      ORDER BY created_at DESC, id DESC
			      LIMIT 1
			  )
			  RETURNING ` + subscriptionColumns
	var sub models.Subscription
	if err := s.conn(ctx).GetContext(ctx, &sub, query, userID, now, days, string(plan)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}

// GetSubscriptionByLicense ищет подписку по точному совпадению ключа.
func (s *Storage) GetSubscriptionByLicense(ctx context.Context, licenseKey string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByLicense"
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE license_key = $1`
	var sub models.Subscription
	if err := s.conn(ctx).GetContext(ctx, &sub, query, licenseKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}

// ListExpiringSubscriptions активные подписки, истекающие в окне [from, until].
func (s *Storage) ListExpiringSubscriptions(ctx context.Context, from, until time.Time) ([]models.Subscription, error) {
	const op = "storage.ListExpiringSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'active' AND expires_at >= $1 AND expires_at <= $2
			  ORDER BY expires_at ASC, id ASC`
	subs := make([]models.Subscription, 0)
	if err := s.conn(ctx).SelectContext(ctx, &subs, query, from, until); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// ListExpiringNotices то же окно, что и ListExpiringSubscriptions, с контактами владельцев.
func (s *Storage) ListExpiringNotices(ctx context.Context, from, until time.Time) ([]models.ExpiringNotice, error) {
	const op = "storage.ListExpiringNotices"
	query := `SELECT s.id AS subscription_id, s.user_id, u.username, u.email, s.plan_type, s.expires_at
			  FROM subscriptions s
			  JOIN users u ON u.id = s.user_id
			  WHERE s.status = 'active' AND s.expires_at >= $1 AND s.expires_at <= $2
			  ORDER BY s.expires_at ASC, s.id ASC`
	notices := make([]models.ExpiringNotice, 0)
	if err := s.conn(ctx).SelectContext(ctx, &notices, query, from, until); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notices, nil
}

// UpdateSubscriptionStatus меняет статус подписки по ID.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id int64,
	status models.SubscriptionStatus) (*models.Subscription, error) {
	const op = "storage.UpdateSubscriptionStatus"
	query := `UPDATE subscriptions SET status = $2 WHERE id = $1 RETURNING ` + subscriptionColumns
	var sub models.Subscription
	if err := s.conn(ctx).GetContext(ctx, &sub, query, id, string(status)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}
