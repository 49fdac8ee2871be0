// Package botsession учёт запусков бота: открытие, обновление счётчиков и закрытие сессий.
package botsession

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Repository операции хранилища над сессиями бота.
type Repository interface {
	CreateBotSession(ctx context.Context, userID int64, start time.Time) (*models.BotSession, error)
	UpdateBotSession(ctx context.Context, userID, sessionID int64, fishCaught, skillsUsed int) (*models.BotSession, error)
	EndBotSession(ctx context.Context, userID, sessionID int64, end time.Time) (*models.BotSession, error)
	ListBotSessionsByUser(ctx context.Context, userID int64) ([]models.BotSession, error)
}

// Subscriptions источник активной подписки.
type Subscriptions interface {
	GetActive(ctx context.Context, userID int64) (*models.Subscription, error)
}

// Service управляет сессиями бота.
type Service struct {
	repo Repository
	subs Subscriptions
	log  *slog.Logger
	now  func() time.Time
}

// New создает сервис сессий.
func New(repo Repository, subs Subscriptions, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		subs: subs,
		log:  log,
		now:  time.Now,
	}
}

// Start открывает сессию. Без активной подписки: models.ErrSubscriptionRequired.
func (s *Service) Start(ctx context.Context, userID int64) (*models.BotSession, error) {
	const op = "botsession.Start"
	sub, err := s.subs.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionRequired)
	}
	bs, err := s.repo.CreateBotSession(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("bot session started", slog.Int64("user_id", userID), slog.Int64("session_id", bs.ID))
	return bs, nil
}

// Update записывает счётчики активной сессии владельца.
func (s *Service) Update(ctx context.Context, userID, sessionID int64, fishCaught, skillsUsed int) (*models.BotSession, error) {
	const op = "botsession.Update"
	if fishCaught < 0 || skillsUsed < 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCounters)
	}
	bs, err := s.repo.UpdateBotSession(ctx, userID, sessionID, fishCaught, skillsUsed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bs, nil
}

// End закрывает сессию текущим временем.
func (s *Service) End(ctx context.Context, userID, sessionID int64) (*models.BotSession, error) {
	const op = "botsession.End"
	bs, err := s.repo.EndBotSession(ctx, userID, sessionID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("bot session ended",
		slog.Int64("user_id", userID),
		slog.Int64("session_id", sessionID),
		slog.Int("fish_caught", bs.FishCaught))
	return bs, nil
}

// ListForUser сессии пользователя, новые первыми.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.BotSession, error) {
	const op = "botsession.ListForUser"
	sessions, err := s.repo.ListBotSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}
