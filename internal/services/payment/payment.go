// Package payment учёт платежей: создание, ручное подтверждение и активация оплаченного тарифа.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-portal/internal/metrics"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

const pixPrefix = "00020126330015BR.PIX."

// Repository операции хранилища над платежами.
type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, id int64) error
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, completedAt *time.Time) (*models.Payment, error)
	CompletePendingPayment(ctx context.Context, id int64, at time.Time) (*models.Payment, error)
	AttachSubscription(ctx context.Context, paymentID, subscriptionID int64) error
	ListPaymentsByUser(ctx context.Context, userID int64) ([]models.Payment, error)
}

// Subscriptions то, что платежам нужно от сервиса подписок.
type Subscriptions interface {
	Grant(ctx context.Context, userID int64, plan models.Plan) (*models.Subscription, error)
	Forget(ctx context.Context, userID int64)
}

// Service реализует работу с платежами.
type Service struct {
	repo Repository
	subs Subscriptions
	log  *slog.Logger
	now  func() time.Time
}

// New создает сервис платежей.
func New(repo Repository, subs Subscriptions, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		subs: subs,
		log:  log,
		now:  time.Now,
	}
}

// PixCode детерминированный PIX-код платежа. Заглушка до подключения шлюза.
func PixCode(paymentID int64) string {
	return fmt.Sprintf("%s%010d", pixPrefix, paymentID)
}

// Create заводит pending платёж за тариф planType и возвращает инструкции для оплаты.
func (s *Service) Create(ctx context.Context, userID int64, planType models.PlanType,
	method models.PaymentMethod) (*models.PaymentInstructions, error) {
	const op = "payment.Create"
	plan, err := models.PlanFor(planType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidPaymentMethod, method)
	}

	p, err := s.repo.CreatePayment(ctx, models.Payment{
		UserID:        userID,
		PlanType:      plan.Type,
		Amount:        plan.Price,
		Currency:      plan.Currency,
		PaymentMethod: method,
		ExternalID:    string(method) + "_" + uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment created",
		slog.Int64("payment_id", p.ID), slog.Int64("user_id", userID), slog.String("plan", string(plan.Type)))

	pix := PixCode(p.ID)
	return &models.PaymentInstructions{
		PaymentID:  p.ID,
		Amount:     p.Amount.StringFixed(2),
		Currency:   p.Currency,
		PixCode:    pix,
		QRCodeData: pix,
		Status:     p.Status,
	}, nil
}

// Complete подтверждает платёж владельца и выдаёт оплаченный тариф одной транзакцией.
// Чужой или несуществующий платёж: models.ErrNotFound, уже обработанный: models.ErrPaymentNotPending.
func (s *Service) Complete(ctx context.Context, userID, paymentID int64) (*models.Payment, *models.Subscription, error) {
	const op = "payment.Complete"
	var (
		completed *models.Payment
		sub       *models.Subscription
		plan      models.Plan
	)
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return models.ErrNotFound
		}
		if p.Status != models.PaymentPending {
			return models.ErrPaymentNotPending
		}
		// выдача подписок одному пользователю идёт строго по очереди
		if err := s.repo.LockUser(ctx, userID); err != nil {
			return err
		}
		if completed, err = s.repo.CompletePendingPayment(ctx, paymentID, s.now()); err != nil {
			return err
		}

		plan = planOf(completed)
		if sub, err = s.subs.Grant(ctx, userID, plan); err != nil {
			return err
		}
		if err := s.repo.AttachSubscription(ctx, paymentID, sub.ID); err != nil {
			return err
		}
		completed.SubscriptionID = &sub.ID
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	// кеш мог успеть заполниться старой подпиской до коммита
	s.subs.Forget(ctx, userID)
	metrics.PaymentsCompletedTotal.WithLabelValues(string(plan.Type)).Inc()
	s.log.Info("payment completed",
		slog.Int64("payment_id", paymentID),
		slog.Int64("user_id", userID),
		slog.Int64("subscription_id", sub.ID),
		slog.Time("expires_at", sub.ExpiresAt))
	return completed, sub, nil
}

// planOf тариф берётся из платежа, по сумме только для старых записей без него.
func planOf(p *models.Payment) models.Plan {
	if plan, err := models.PlanFor(p.PlanType); err == nil {
		return plan
	}
	return models.PlanByAmount(p.Amount)
}

// UpdateStatus меняет статус платежа без выдачи подписки. completed проставляет completed_at.
// Завершённый платёж больше не меняется.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus) (*models.Payment, error) {
	const op = "payment.UpdateStatus"
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidStatus, status)
	}

	var updated *models.Payment
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPaymentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == models.PaymentCompleted {
			return models.ErrPaymentNotPending
		}
		var completedAt *time.Time
		if status == models.PaymentCompleted {
			now := s.now()
			completedAt = &now
		}
		updated, err = s.repo.UpdatePaymentStatus(ctx, id, status, completedAt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// ListForUser платежи пользователя, новые первыми.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	const op = "payment.ListForUser"
	payments, err := s.repo.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
