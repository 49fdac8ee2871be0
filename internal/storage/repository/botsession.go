package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

const botSessionColumns = `id, user_id, session_start, session_end, fish_caught, skills_used, status`

// CreateBotSession открывает новую сессию бота.
func (s *Storage) CreateBotSession(ctx context.Context, userID int64, start time.Time) (*models.BotSession, error) {
	const op = "storage.CreateBotSession"
	query := `INSERT INTO bot_sessions (user_id, session_start, status)
			  VALUES ($1, $2, 'active')
			  RETURNING ` + botSessionColumns
	var bs models.BotSession
	if err := s.conn(ctx).GetContext(ctx, &bs, query, userID, start); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &bs, nil
}

// UpdateBotSession обновляет счётчики активной сессии владельца.
// Чужая, закрытая или несуществующая сессия: models.ErrNotFound.
func (s *Storage) UpdateBotSession(ctx context.Context, userID, sessionID int64, fishCaught, skillsUsed int) (*models.BotSession, error) {
	const op = "storage.UpdateBotSession"
	query := `UPDATE bot_sessions
			  SET fish_caught = $3, skills_used = $4
			  WHERE id = $1 AND user_id = $2 AND status = 'active'
			  RETURNING ` + botSessionColumns
	var bs models.BotSession
	if err := s.conn(ctx).GetContext(ctx, &bs, query, sessionID, userID, fishCaught, skillsUsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &bs, nil
}

// EndBotSession закрывает активную сессию владельца.
func (s *Storage) EndBotSession(ctx context.Context, userID, sessionID int64, end time.Time) (*models.BotSession, error) {
	const op = "storage.EndBotSession"
	query := `UPDATE bot_sessions
			  SET session_end = $3, status = 'ended'
			  WHERE id = $1 AND user_id = $2 AND status = 'active'
			  RETURNING ` + botSessionColumns
	var bs models.BotSession
	if err := s.conn(ctx).GetContext(ctx, &bs, query, sessionID, userID, end); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &bs, nil
}

// ListBotSessionsByUser сессии пользователя, новые первыми.
func (s *Storage) ListBotSessionsByUser(ctx context.Context, userID int64) ([]models.BotSession, error) {
	const op = "storage.ListBotSessionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + botSessionColumns + `
			  FROM bot_sessions
			  WHERE user_id = $1
			  ORDER BY session_start DESC, id DESC`
	sessions := make([]models.BotSession, 0)
	if err := s.conn(ctx).SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}
