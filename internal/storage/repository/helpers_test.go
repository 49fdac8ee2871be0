package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/license-portal/internal/migrations"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB.DB, filepath.Join(root, "migrations")))

	return storage
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FullName:     "Test " + username,
	})
	require.NoError(t, err)
	return u
}

// CreateSubscription создает подписку с произвольными статусом, сроком и датой создания
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID int64, plan models.PlanType,
	status models.SubscriptionStatus, expiresAt, createdAt time.Time, key string) *models.Subscription {
	t.Helper()
	var sub models.Subscription
	err := f.storage.DB.Get(&sub, `INSERT INTO subscriptions (user_id, plan_type, status, expires_at, created_at, license_key)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+subscriptionColumns,
		userID, string(plan), string(status), expiresAt, createdAt, key)
	require.NoError(t, err)
	return &sub
}

// CreateCompletedPayment создает завершённый платёж на дату completedAt
func (f *TestDataFactory) CreateCompletedPayment(t *testing.T, userID int64, amount string, completedAt time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO payments (user_id, plan_type, amount, payment_method, status, completed_at)
		VALUES ($1, 'basic', $2::numeric, 'pix', 'completed', $3)`, userID, amount, completedAt)
	require.NoError(t, err)
}

// SetUserCreatedAt сдвигает дату регистрации пользователя
func (f *TestDataFactory) SetUserCreatedAt(t *testing.T, userID int64, at time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`UPDATE users SET created_at = $2 WHERE id = $1`, userID, at)
	require.NoError(t, err)
}

func countRows(t *testing.T, s *Storage, table string, userID int64) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB.Get(&n, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID))
	return n
}
