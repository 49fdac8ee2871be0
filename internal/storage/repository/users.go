package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, is_admin, created_at, last_login`

// CreateUser сохраняет нового пользователя. Нарушение уникальности username или email
// возвращается как models.ErrUsernameTaken или models.ErrEmailTaken.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (username, email, password_hash, full_name, is_admin)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + userColumns
	var created models.User
	if err := s.conn(ctx).GetContext(ctx, &created, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.IsAdmin); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &created, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUserBy(ctx, "storage.GetUser", "id", id)
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, "storage.GetUserByUsername", "username", username)
}

// GetUserByEmail возвращает пользователя по e-mail.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, "storage.GetUserByEmail", "email", email)
}

// column подставляется только из констант выше.
func (s *Storage) getUserBy(ctx context.Context, op, column string, value any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	var u models.User
	if err := s.conn(ctx).GetContext(ctx, &u, query, value); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &u, nil
}

// LockUser берёт построчную блокировку пользователя до конца текущей транзакции.
// Сериализует выдачу подписки одному и тому же пользователю.
func (s *Storage) LockUser(ctx context.Context, id int64) error {
	const op = "storage.LockUser"
	var locked int64
	if err := s.conn(ctx).GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// UpdateLastLogin отмечает время последнего входа.
func (s *Storage) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.UpdateLastLogin"
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return checkAffected(op, res)
}

// SetAdmin выдаёт или снимает права администратора.
func (s *Storage) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	const op = "storage.SetAdmin"
	query := `UPDATE users SET is_admin = $2 WHERE username = $1 RETURNING ` + userColumns
	var u models.User
	if err := s.conn(ctx).GetContext(ctx, &u, query, username, isAdmin); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &u, nil
}

type userSubscriptionRow struct {
	models.User
	SubID         sql.NullInt64  `db:"sub_id"`
	SubPlanType   sql.NullString `db:"sub_plan_type"`
	SubStatus     sql.NullString `db:"sub_status"`
	SubExpiresAt  sql.NullTime   `db:"sub_expires_at"`
	SubCreatedAt  sql.NullTime   `db:"sub_created_at"`
	SubLicenseKey sql.NullString `db:"sub_license_key"`
}

// ListUsersWithActiveSubscription возвращает всех пользователей, у каждого его активная подписка на момент now или nil.
func (s *Storage) ListUsersWithActiveSubscription(ctx context.Context, now time.Time) ([]models.UserWithSubscription, error) {
	const op = "storage.ListUsersWithActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.username, u.email, u.password_hash, u.full_name, u.is_admin, u.created_at, u.last_login,
			      s.id AS sub_id, s.plan_type AS sub_plan_type, s.status AS sub_status,
			      s.expires_at AS sub_expires_at, s.created_at AS sub_created_at, s.license_key AS sub_license_key
			  FROM users u
			  LEFT JOIN LATERAL (
			      SELECT id, plan_type, status, expires_at, created_at, license_key
			      FROM subscriptions
			      WHERE user_id = u.id AND status = 'active' AND expires_at > $1
			      ORDER BY created_at DESC, id DESC
			      LIMIT 1
			  ) s ON TRUE
			  ORDER BY u.created_at DESC, u.id DESC`
	var rows []userSubscriptionRow
	if err := s.conn(ctx).SelectContext(ctx, &rows, query, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.UserWithSubscription, 0, len(rows))
	for _, r := range rows {
		item := models.UserWithSubscription{User: r.User}
		if r.SubID.Valid {
			item.Subscription = &models.Subscription{
				ID:         r.SubID.Int64,
				UserID:     r.ID,
				PlanType:   models.PlanType(r.SubPlanType.String),
				Status:     models.SubscriptionStatus(r.SubStatus.String),
				ExpiresAt:  r.SubExpiresAt.Time,
				CreatedAt:  r.SubCreatedAt.Time,
				LicenseKey: r.SubLicenseKey.String,
			}
		}
		result = append(result, item)
	}
	return result, nil
}

// DeleteUser удаляет пользователя вместе с сессиями, платежами и подписками одной транзакцией.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.DeleteUser"
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.LockUser(ctx, id); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM bot_sessions WHERE user_id = $1`,
			`DELETE FROM payments WHERE user_id = $1`,
			`DELETE FROM subscriptions WHERE user_id = $1`,
		} {
			if _, err := s.conn(ctx).ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return checkAffected(op, res)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func checkAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
