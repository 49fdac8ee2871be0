// Package stats сводная статистика для администратора.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/lib/month"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Repository агрегирующий запрос хранилища.
type Repository interface {
	SystemStats(ctx context.Context, now, monthStart time.Time) (*models.SystemStats, error)
}

// Service считает сводку.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New создает сервис статистики.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SystemStats сводка на текущий момент. Месяц считается по локальным часам сервера.
func (s *Service) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	const op = "stats.SystemStats"
	now := s.now()
	stats, err := s.repo.SystemStats(ctx, now, month.Start(now.Local()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}
