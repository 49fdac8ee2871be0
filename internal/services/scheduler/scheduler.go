// Package scheduler периодически ищет истекающие подписки и ставит напоминания в очередь.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/metrics"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Subscriptions источник истекающих подписок.
type Subscriptions interface {
	ExpiringNotices(ctx context.Context, days int) ([]models.ExpiringNotice, error)
}

// SentMarks отметки об уже отправленных напоминаниях.
type SentMarks interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service планировщик напоминаний.
type Service struct {
	subs     Subscriptions
	marks    SentMarks
	log      *slog.Logger
	interval time.Duration
	days     int
	now      func() time.Time
}

// New создает планировщик. marks может быть nil, тогда напоминание уходит на каждом проходе.
func New(subs Subscriptions, marks SentMarks, log *slog.Logger, interval time.Duration, days int) *Service {
	return &Service{
		subs:     subs,
		marks:    marks,
		log:      log,
		interval: interval,
		days:     days,
		now:      time.Now,
	}
}

// Run делает проход сразу и затем каждые interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context, pub rabbitmq.Publisher) {
	s.log.Info("reminder scheduler started",
		slog.Duration("interval", s.interval), slog.Int("reminder_days", s.days))
	s.RunOnce(ctx, pub)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx, pub)
		}
	}
}

// RunOnce публикует напоминания по всем подпискам, истекающим в ближайшие days суток.
// Возвращает число опубликованных сообщений.
func (s *Service) RunOnce(ctx context.Context, pub rabbitmq.Publisher) int {
	notices, err := s.subs.ExpiringNotices(ctx, s.days)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return 0
	}
	if len(notices) == 0 {
		s.log.Info("no expiring subscriptions found")
		return 0
	}

	published := 0
	for _, n := range notices {
		key := markKey(n)
		if s.alreadySent(ctx, key) {
			continue
		}
		err := rabbitmq.PublishMessage(pub, rabbitmq.ExchangeNotifications, rabbitmq.RoutingKeyExpiring, n)
		if err != nil {
			s.log.Error("failed to publish reminder",
				slog.Int64("subscription_id", n.SubscriptionID), sl.Err(err))
			continue
		}
		s.markSent(ctx, key, n.ExpiresAt)
		metrics.RemindersPublishedTotal.Inc()
		published++
	}
	s.log.Info("reminders published", slog.Int("found", len(notices)), slog.Int("published", published))
	return published
}

// markKey учитывает срок, поэтому после продления напоминание придёт снова.
func markKey(n models.ExpiringNotice) string {
	return fmt.Sprintf("reminder:sent:%d:%d", n.SubscriptionID, n.ExpiresAt.Unix())
}

func (s *Service) alreadySent(ctx context.Context, key string) bool {
	if s.marks == nil {
		return false
	}
	var sent bool
	found, err := s.marks.Get(ctx, key, &sent)
	if err != nil {
		s.log.Warn("failed to read reminder mark", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) markSent(ctx context.Context, key string, expiresAt time.Time) {
	if s.marks == nil {
		return
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.marks.Set(ctx, key, true, ttl); err != nil {
		s.log.Warn("failed to store reminder mark", slog.String("key", key), sl.Err(err))
	}
}
