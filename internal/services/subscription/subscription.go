// Package subscription жизненный цикл подписок: выдача, продление, проверка лицензии и поиск истекающих.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/lib/licensekey"
	"github.com/magabrotheeeer/license-portal/internal/lib/month"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/metrics"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// keyAttempts сколько раз перевыпускать ключ при коллизии.
const keyAttempts = 3

// Repository операции хранилища над подписками.
type Repository interface {
	CreateSubscription(ctx context.Context, userID int64, plan models.PlanType, expiresAt time.Time, licenseKey string) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID int64, now time.Time) (*models.Subscription, error)
	GetLatestSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	ExtendLatestSubscription(ctx context.Context, userID int64, days int, plan models.PlanType, now time.Time) (*models.Subscription, error)
	GetSubscriptionByLicense(ctx context.Context, licenseKey string) (*models.Subscription, error)
	ListExpiringSubscriptions(ctx context.Context, from, until time.Time) ([]models.Subscription, error)
	ListExpiringNotices(ctx context.Context, from, until time.Time) ([]models.ExpiringNotice, error)
	UpdateSubscriptionStatus(ctx context.Context, id int64, status models.SubscriptionStatus) (*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Service управляет подписками. Активная подписка кешируется, любое изменение сбрасывает кеш.
type Service struct {
	repo   Repository
	cache  Cache
	log    *slog.Logger
	ttl    time.Duration
	now    func() time.Time
	newKey func() (string, error)
}

// New создает сервис подписок. ttl время жизни записи об активной подписке в кеше.
func New(repo Repository, cache Cache, log *slog.Logger, ttl time.Duration) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		log:    log,
		ttl:    ttl,
		now:    time.Now,
		newKey: licensekey.Generate,
	}
}

// CacheKey ключ кеша активной подписки пользователя.
func CacheKey(userID int64) string {
	return "subscription:active:" + strconv.FormatInt(userID, 10)
}

// Create выдаёт новую активную подписку со свежим ключом.
func (s *Service) Create(ctx context.Context, userID int64, plan models.PlanType, expiresAt time.Time) (*models.Subscription, error) {
	const op = "subscription.Create"
	for attempt := 1; attempt <= keyAttempts; attempt++ {
		key, err := s.newKey()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sub, err := s.repo.CreateSubscription(ctx, userID, plan, expiresAt, key)
		if errors.Is(err, models.ErrAlreadyExists) {
			s.log.Warn("license key collision, regenerating",
				slog.Int64("user_id", userID), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.Forget(ctx, userID)
		s.log.Info("subscription created",
			slog.Int64("user_id", userID),
			slog.Int64("subscription_id", sub.ID),
			slog.String("license", licensekey.Mask(sub.LicenseKey)))
		return sub, nil
	}
	return nil, fmt.Errorf("%s: license key collided %d times: %w", op, keyAttempts, models.ErrAlreadyExists)
}

// GetActive возвращает действующую подписку пользователя или nil.
func (s *Service) GetActive(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "subscription.GetActive"
	now := s.now()
	key := CacheKey(userID)

	var cached models.Subscription
	found, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		s.log.Warn("failed to read subscription cache", slog.String("key", key), sl.Err(err))
	case found && cached.IsActive(now):
		metrics.SubscriptionCacheTotal.WithLabelValues("hit").Inc()
		return &cached, nil
	case found:
		s.Forget(ctx, userID)
	}
	metrics.SubscriptionCacheTotal.WithLabelValues("miss").Inc()

	sub, err := s.repo.GetActiveSubscription(ctx, userID, now)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.ttl > 0 {
		// запись не должна пережить саму подписку
		ttl := min(s.ttl, sub.ExpiresAt.Sub(now))
		if err := s.cache.Set(ctx, key, sub, ttl); err != nil {
			s.log.Warn("failed to cache subscription", slog.String("key", key), sl.Err(err))
		}
	}
	return sub, nil
}

// Latest последняя созданная подписка пользователя в любом статусе или nil.
func (s *Service) Latest(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "subscription.Latest"
	sub, err := s.repo.GetLatestSubscription(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Extend продлевает последнюю подписку на days суток от max(expires_at, now).
// Если подписок нет, ничего не делает и возвращает nil, nil.
func (s *Service) Extend(ctx context.Context, userID int64, days int) (*models.Subscription, error) {
	const op = "subscription.Extend"
	if days <= 0 {
		return nil, fmt.Errorf("%s: days must be positive, got %d", op, days)
	}
	sub, err := s.repo.ExtendLatestSubscription(ctx, userID, days, "", s.now())
	if errors.Is(err, models.ErrNotFound) {
		s.log.Info("nothing to extend, user has no subscription", slog.Int64("user_id", userID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.Forget(ctx, userID)
	s.log.Info("subscription extended",
		slog.Int64("user_id", userID), slog.Int("days", days), slog.Time("expires_at", sub.ExpiresAt))
	return sub, nil
}

// Grant выдаёт оплаченный тариф: продлевает последнюю подписку на срок тарифа и переводит её на него,
// а если подписок ещё не было, создаёт новую.
func (s *Service) Grant(ctx context.Context, userID int64, plan models.Plan) (*models.Subscription, error) {
	const op = "subscription.Grant"
	now := s.now()
	sub, err := s.repo.ExtendLatestSubscription(ctx, userID, plan.DurationDays, plan.Type, now)
	if errors.Is(err, models.ErrNotFound) {
		sub, err = s.Create(ctx, userID, plan.Type, month.DaysFrom(now, plan.DurationDays))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.Forget(ctx, userID)
	return sub, nil
}

// GetByLicense подписка по ключу или nil. Активность не проверяется.
func (s *Service) GetByLicense(ctx context.Context, licenseKey string) (*models.Subscription, error) {
	const op = "subscription.GetByLicense"
	sub, err := s.repo.GetSubscriptionByLicense(ctx, licenseKey)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Validate проверяет ключ клиента бота.
// Неизвестный ключ: models.ErrInvalidLicense, неактивная подписка: models.ErrLicenseExpired.
func (s *Service) Validate(ctx context.Context, licenseKey string) (*models.Subscription, error) {
	const op = "subscription.Validate"
	sub, err := s.GetByLicense(ctx, licenseKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		metrics.LicenseValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidLicense)
	}
	if !sub.IsActive(s.now()) {
		metrics.LicenseValidationsTotal.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("%s: %w", op, models.ErrLicenseExpired)
	}
	metrics.LicenseValidationsTotal.WithLabelValues("valid").Inc()
	return sub, nil
}

// Expiring активные подписки, истекающие в ближайшие days суток.
func (s *Service) Expiring(ctx context.Context, days int) ([]models.Subscription, error) {
	const op = "subscription.Expiring"
	from, until, err := s.window(days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := s.repo.ListExpiringSubscriptions(ctx, from, until)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// ExpiringNotices то же окно, что и Expiring, с контактами владельцев для рассылки.
func (s *Service) ExpiringNotices(ctx context.Context, days int) ([]models.ExpiringNotice, error) {
	const op = "subscription.ExpiringNotices"
	from, until, err := s.window(days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	notices, err := s.repo.ListExpiringNotices(ctx, from, until)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notices, nil
}

func (s *Service) window(days int) (time.Time, time.Time, error) {
	if days < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("days must not be negative, got %d", days)
	}
	now := s.now()
	return now, month.DaysFrom(now, days), nil
}

// SetStatus меняет статус подписки.
func (s *Service) SetStatus(ctx context.Context, id int64, status models.SubscriptionStatus) (*models.Subscription, error) {
	const op = "subscription.SetStatus"
	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", op, models.ErrInvalidStatus, status)
	}
	sub, err := s.repo.UpdateSubscriptionStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.Forget(ctx, sub.UserID)
	return sub, nil
}

// Forget сбрасывает закешированную активную подписку пользователя.
func (s *Service) Forget(ctx context.Context, userID int64) {
	key := CacheKey(userID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.String("key", key), sl.Err(err))
	}
}
