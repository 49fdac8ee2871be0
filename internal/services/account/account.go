// Package account регистрация, вход и администрирование учётных записей.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/license-portal/internal/lib/password"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error)
	ListUsersWithActiveSubscription(ctx context.Context, now time.Time) ([]models.UserWithSubscription, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Revoker список отозванных токенов.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// SubscriptionCache сброс кеша подписки удалённого пользователя.
type SubscriptionCache interface {
	Forget(ctx context.Context, userID int64)
}

// Session пользователь и выданный ему токен доступа.
type Session struct {
	User  *models.User
	Token string
}

// Service отвечает за учётные записи и выдачу токенов.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	revoker  Revoker
	subs     SubscriptionCache
	log      *slog.Logger
	now      func() time.Time
}

// New создает сервис учётных записей. revoker и subs могут быть nil для операторских утилит.
func New(users UserRepository, jwtMaker jwt.Maker, revoker Revoker, subs SubscriptionCache, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		revoker:  revoker,
		subs:     subs,
		log:      log,
		now:      time.Now,
	}
}

// Register создает обычного пользователя и сразу выдаёт ему токен.
func (s *Service) Register(ctx context.Context, username, email, rawPassword, fullName string) (*Session, error) {
	const op = "account.Register"
	user, err := s.create(ctx, username, email, rawPassword, fullName, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sess, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return sess, nil
}

// create проверка заранее нужна только для понятного сообщения,
// гонку двух регистраций разрешает уникальный индекс.
func (s *Service) create(ctx context.Context, username, email, rawPassword, fullName string, isAdmin bool) (*models.User, error) {
	if len(rawPassword) > password.MaxBytes {
		return nil, models.ErrPasswordTooLong
	}
	if err := s.ensureFree(ctx, username, email); err != nil {
		return nil, err
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		IsAdmin:      isAdmin,
	})
}

func (s *Service) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return models.ErrUsernameTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return models.ErrEmailTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}

// Authenticate проверяет логин (username или e-mail) и пароль и выдаёт токен.
// Любая неудача возвращается как models.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, rawPassword string) (*Session, error) {
	const op = "account.Authenticate"
	user, err := s.findByLogin(ctx, login)
	if errors.Is(err, models.ErrNotFound) {
		_ = password.CompareDummy(rawPassword)
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Warn("stored password hash is unusable", slog.Int64("user_id", user.ID), sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.LastLogin = &now

	sess, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sess, nil
}

func (s *Service) findByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, login)
	if errors.Is(err, models.ErrNotFound) {
		return s.users.GetUserByEmail(ctx, login)
	}
	return user, err
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Logout отзывает токен запроса до истечения его срока.
func (s *Service) Logout(ctx context.Context, id models.Identity) error {
	const op = "account.Logout"
	if s.revoker == nil || id.TokenID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get возвращает пользователя по ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	const op = "account.Get"
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ListWithSubscriptions все пользователи с их активной подпиской.
func (s *Service) ListWithSubscriptions(ctx context.Context) ([]models.UserWithSubscription, error) {
	const op = "account.ListWithSubscriptions"
	users, err := s.users.ListUsersWithActiveSubscription(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Delete удаляет пользователя и все его данные.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "account.Delete"
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.subs != nil {
		s.subs.Forget(ctx, id)
	}
	s.log.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

// ProvisionAdmin создает учётную запись администратора. Только для операторской утилиты.
func (s *Service) ProvisionAdmin(ctx context.Context, username, email, rawPassword, fullName string) (*models.User, error) {
	const op = "account.ProvisionAdmin"
	user, err := s.create(ctx, username, email, rawPassword, fullName, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin provisioned", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

// SetAdmin выдаёт или снимает права администратора существующему пользователю.
// Уже выданные токены сохраняют прежний флаг до истечения срока.
func (s *Service) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	const op = "account.SetAdmin"
	user, err := s.users.SetAdmin(ctx, username, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin flag changed", slog.String("username", username), slog.Bool("is_admin", isAdmin))
	return user, nil
}
