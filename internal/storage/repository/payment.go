package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

const paymentColumns = `id, user_id, subscription_id, plan_type, amount, currency, payment_method,
	status, external_id, created_at, completed_at`

// CreatePayment сохраняет платёж в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_id, plan_type, amount, currency, payment_method, status, external_id)
			  VALUES ($1, $2, $3, $4, $5, 'pending', $6)
			  RETURNING ` + paymentColumns
	var created models.Payment
	if err := s.conn(ctx).GetContext(ctx, &created, query,
		p.UserID, string(p.PlanType), p.Amount, p.Currency, string(p.PaymentMethod), p.ExternalID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &created, nil
}

// GetPayment возвращает платёж по ID.
func (s *Storage) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	return s.getPayment(ctx, "storage.GetPayment", id, false)
}

// GetPaymentForUpdate возвращает платёж и блокирует строку до конца транзакции.
func (s *Storage) GetPaymentForUpdate(ctx context.Context, id int64) (*models.Payment, error) {
	return s.getPayment(ctx, "storage.GetPaymentForUpdate", id, true)
}

func (s *Storage) getPayment(ctx context.Context, op string, id int64, forUpdate bool) (*models.Payment, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var p models.Payment
	if err := s.conn(ctx).GetContext(ctx, &p, query, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// UpdatePaymentStatus меняет статус. completedAt проставляется только если передан.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus,
	completedAt *time.Time) (*models.Payment, error) {
	const op = "storage.UpdatePaymentStatus"
	query := `UPDATE payments
			  SET status = $2, completed_at = COALESCE($3, completed_at)
			  WHERE id = $1
			  RETURNING ` + paymentColumns
	var p models.Payment
	if err := s.conn(ctx).GetContext(ctx, &p, query, id, string(status), completedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// CompletePendingPayment переводит pending платёж в completed.
// Если платёж уже не pending, возвращает models.ErrPaymentNotPending.
func (s *Storage) CompletePendingPayment(ctx context.Context, id int64, at time.Time) (*models.Payment, error) {
	const op = "storage.CompletePendingPayment"
	query := `UPDATE payments
			  SET status = 'completed', completed_at = $2
			  WHERE id = $1 AND status = 'pending'
			  RETURNING ` + paymentColumns
	var p models.Payment
	if err := s.conn(ctx).GetContext(ctx, &p, query, id, at); err != nil {
		err = mapError(err)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentNotPending)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// AttachSubscription связывает платёж с подпиской, которую он оплатил.
func (s *Storage) AttachSubscription(ctx context.Context, paymentID, subscriptionID int64) error {
	const op = "storage.AttachSubscription"
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE payments SET subscription_id = $2 WHERE id = $1`, paymentID, subscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return checkAffected(op, res)
}

// ListPaymentsByUser платежи пользователя, новые первыми.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_id = $1
			  ORDER BY created_at DESC, id DESC`
	payments := make([]models.Payment, 0)
	if err := s.conn(ctx).SelectContext(ctx, &payments, query, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
