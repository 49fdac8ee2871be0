package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

const day = 24 * time.Hour

func TestStorage_CreateUser_Uniqueness(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()

	created, err := storage.CreateUser(ctx, models.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "hash", FullName: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.IsAdmin)
	assert.Nil(t, created.LastLogin)

	tests := []struct {
		name    string
		user    models.User
		wantErr error
	}{
		{
			name:    "duplicate username",
			user:    models.User{Username: "alice", Email: "other@example.com", PasswordHash: "h", FullName: "A"},
			wantErr: models.ErrUsernameTaken,
		},
		{
			name:    "duplicate email",
			user:    models.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "h", FullName: "A"},
			wantErr: models.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.CreateUser(ctx, tt.user)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, models.ErrAlreadyExists)
		})
	}
}

func TestStorage_GetUser(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	u := NewTestDataFactory(storage).CreateUser(t, "bob")

	byName, err := storage.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := storage.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := storage.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.Username)

	_, err = storage.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)

	now := time.Now()
	require.NoError(t, storage.UpdateLastLogin(ctx, u.ID, now))
	byID, err = storage.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLogin)
	assert.WithinDuration(t, now, *byID.LastLogin, time.Millisecond)

	assert.ErrorIs(t, storage.UpdateLastLogin(ctx, 999999, now), models.ErrNotFound)
}

func TestStorage_SetAdmin(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	NewTestDataFactory(storage).CreateUser(t, "carol")

	u, err := storage.SetAdmin(ctx, "carol", true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	u, err = storage.SetAdmin(ctx, "carol", false)
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)

	_, err = storage.SetAdmin(ctx, "ghost", true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_CreateSubscription_LicenseCollision(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	u := NewTestDataFactory(storage).CreateUser(t, "dave")
	key := "AAAA-BBBB-CCCC-DDDD-EEEE-FFFF-0000-1111"

	sub, err := storage.CreateSubscription(ctx, u.ID, models.PlanPro, time.Now().Add(day), key)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, models.PlanPro, sub.PlanType)
	assert.Equal(t, key, sub.LicenseKey)

	_, err = storage.CreateSubscription(ctx, u.ID, models.PlanBasic, time.Now().Add(day), key)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestStorage_GetActiveSubscription(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		setup   func(t *testing.T, f *TestDataFactory, userID int64)
		wantKey string
		wantErr error
	}{
		{
			name:    "no subscriptions",
			setup:   func(*testing.T, *TestDataFactory, int64) {},
			wantErr: models.ErrNotFound,
		},
		{
			name: "only expired by date",
			setup: func(t *testing.T, f *TestDataFactory, id int64) {
				f.CreateSubscription(t, id, models.PlanBasic, models.SubscriptionActive, now.Add(-time.Hour), now.Add(-40*day), "K000-0000-0000-0000-0000-0000-0000-0001")
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "cancelled with future expiry",
			setup: func(t *testing.T, f *TestDataFactory, id int64) {
				f.CreateSubscription(t, id, models.PlanBasic, models.SubscriptionCancelled, now.Add(10*day), now, "K000-0000-0000-0000-0000-0000-0000-0002")
			},
			wantErr: models.ErrNotFound,
		},
		{
			name: "latest active wins",
			setup: func(t *testing.T, f *TestDataFactory, id int64) {
				f.CreateSubscription(t, id, models.PlanBasic, models.SubscriptionActive, now.Add(5*day), now.Add(-2*day), "K000-0000-0000-0000-0000-0000-0000-0003")
				f.CreateSubscription(t, id, models.PlanPro, models.SubscriptionActive, now.Add(3*day), now.Add(-day), "K000-0000-0000-0000-0000-0000-0000-0004")
			},
			wantKey: "K000-0000-0000-0000-0000-0000-0000-0004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := setupTestDatabase(t)
			factory := NewTestDataFactory(storage)
			u := factory.CreateUser(t, "erin")
			tt.setup(t, factory, u.ID)

			sub, err := storage.GetActiveSubscription(context.Background(), u.ID, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, sub.LicenseKey)
		})
	}
}

func TestStorage_ExtendLatestSubscription(t *testing.T) {
	now := time.Now().Truncate(time.Microsecond)

	tests := []struct {
		name       string
		expiresAt  time.Time
		status     models.SubscriptionStatus
		days       int
		plan       models.PlanType
		wantExpiry time.Time
		wantPlan   models.PlanType
	}{
		{
			name:       "expired subscription restarts from now",
			expiresAt:  now.Add(-10 * day),
			status:     models.SubscriptionExpired,
			days:       30,
			wantExpiry: now.Add(30 * day),
			wantPlan:   models.PlanBasic,
		},
		{
			name:       "running subscription extends from expiry",
			expiresAt:  now.Add(5 * day),
			status:     models.SubscriptionActive,
			days:       7,
			wantExpiry: now.Add(12 * day),
			wantPlan:   models.PlanBasic,
		},
		{
			name:       "plan is replaced when given",
			expiresAt:  now.Add(day),
			status:     models.SubscriptionCancelled,
			days:       30,
			plan:       models.PlanPremium,
			wantExpiry: now.Add(31 * day),
			wantPlan:   models.PlanPremium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := setupTestDatabase(t)
			factory := NewTestDataFactory(storage)
			u := factory.CreateUser(t, "frank")
			original := factory.CreateSubscription(t, u.ID, models.PlanBasic, tt.status, tt.expiresAt, now.Add(-day),
				"F000-0000-0000-0000-0000-0000-0000-0001")

			sub, err := storage.ExtendLatestSubscription(context.Background(), u.ID, tt.days, tt.plan, now)
			require.NoError(t, err)

			assert.Equal(t, original.ID, sub.ID)
			assert.Equal(t, original.LicenseKey, sub.LicenseKey)
			assert.Equal(t, models.SubscriptionActive, sub.Status)
			assert.Equal(t, tt.wantPlan, sub.PlanType)
			assert.WithinDuration(t, tt.wantExpiry, sub.ExpiresAt, time.Millisecond)
		})
	}
}

func TestStorage_ExtendLatestSubscription_NoSubscription(t *testing.T) {
	storage := setupTestDatabase(t)
	u := NewTestDataFactory(storage).CreateUser(t, "gina")

	_, err := storage.ExtendLatestSubscription(context.Background(), u.ID, 30, "", time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_ExtendLatestSubscription_Concurrent(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	u := factory.CreateUser(t, "hank")
	now := time.Now().Truncate(time.Microsecond)
	start := now.Add(10 * day)
	factory.CreateSubscription(t, u.ID, models.PlanBasic, models.SubscriptionActive, start, now, "H000-0000-0000-0000-0000-0000-0000-0001")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.ExtendLatestSubscription(context.Background(), u.ID, 1, "", now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sub, err := storage.GetLatestSubscription(context.Background(), u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, start.Add(workers*day), sub.ExpiresAt, time.Millisecond)
}

func TestStorage_ListExpiring(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	u := factory.CreateUser(t, "ivy")
	now := time.Now()

	factory.CreateSubscription(t, u.ID, models.PlanBasic, models.SubscriptionActive, now.Add(2*day), now, "I000-0000-0000-0000-0000-0000-0000-0001")
	factory.CreateSubscription(t, u.ID, models.PlanBasic, models.SubscriptionActive, now.Add(20*day), now, "I000-0000-0000-0000-0000-0000-0000-0002")
	factory.CreateSubscription(t, u.ID, models.PlanBasic, models.SubscriptionActive, now.Add(-day), now, "I000-0000-0000-0000-0000-0000-0000-0003")
	factory.CreateSubscription(t, u.ID, models.PlanBasic, models.SubscriptionCancelled, now.Add(day), now, "I000-0000-0000-0000-0000-0000-0000-0004")

	subs, err := storage.ListExpiringSubscriptions(context.Background(), now, now.Add(7*day))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "I000-0000-0000-0000-0000-0000-0000-0001", subs[0].LicenseKey)

	notices, err := storage.ListExpiringNotices(context.Background(), now, now.Add(7*day))
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "ivy@example.com", notices[0].Email)
	assert.Equal(t, "ivy", notices[0].Username)
	assert.Equal(t, subs[0].ID, notices[0].SubscriptionID)
}

func TestStorage_Payments(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	u := NewTestDataFactory(storage).CreateUser(t, "jack")

	created, err := storage.CreatePayment(ctx, models.Payment{
		UserID:        u.ID,
		PlanType:      models.PlanPremium,
		Amount:        decimal.RequireFromString("39.90"),
		Currency:      models.DefaultCurrency,
		PaymentMethod: models.MethodPix,
		ExternalID:    "pix_test",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, created.Status)
	assert.Equal(t, models.PlanPremium, created.PlanType)
	assert.True(t, decimal.RequireFromString("39.90").Equal(created.Amount))
	assert.Nil(t, created.CompletedAt)
	assert.Nil(t, created.SubscriptionID)

	completedAt := time.Now()
	completed, err := storage.CompletePendingPayment(ctx, created.ID, completedAt)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = storage.CompletePendingPayment(ctx, created.ID, time.Now())
	assert.ErrorIs(t, err, models.ErrPaymentNotPending)

	sub, err := storage.CreateSubscription(ctx, u.ID, models.PlanPremium, time.Now().Add(30*day), "J000-0000-0000-0000-0000-0000-0000-0001")
	require.NoError(t, err)
	require.NoError(t, storage.AttachSubscription(ctx, created.ID, sub.ID))

	failed, err := storage.UpdatePaymentStatus(ctx, created.ID, models.PaymentFailed, nil)
	require.NoError(t, err)
	require.NotNil(t, failed.CompletedAt, "completed_at is kept when not provided")
	require.NotNil(t, failed.SubscriptionID)
	assert.Equal(t, sub.ID, *failed.SubscriptionID)

	_, err = storage.GetPayment(ctx, 999999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	list, err := storage.ListPaymentsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStorage_BotSessions(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	owner := factory.CreateUser(t, "kate")
	stranger := factory.CreateUser(t, "leo")

	session, err := storage.CreateBotSession(ctx, owner.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, session.Status)

	updated, err := storage.UpdateBotSession(ctx, owner.ID, session.ID, 12, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.FishCaught)
	assert.Equal(t, 3, updated.SkillsUsed)

	_, err = storage.UpdateBotSession(ctx, stranger.ID, session.ID, 1, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = storage.EndBotSession(ctx, stranger.ID, session.ID, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)

	ended, err := storage.EndBotSession(ctx, owner.ID, session.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, ended.Status)
	assert.NotNil(t, ended.SessionEnd)

	_, err = storage.UpdateBotSession(ctx, owner.ID, session.ID, 20, 4)
	assert.ErrorIs(t, err, models.ErrNotFound)

	sessions, err := storage.ListBotSessionsByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestStorage_ListUsersWithActiveSubscription(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	now := time.Now()

	withSub := factory.CreateUser(t, "mia")
	factory.CreateSubscription(t, withSub.ID, models.PlanPro, models.SubscriptionActive, now.Add(day), now, "M000-0000-0000-0000-0000-0000-0000-0001")
	expired := factory.CreateUser(t, "ned")
	factory.CreateSubscription(t, expired.ID, models.PlanPro, models.SubscriptionActive, now.Add(-day), now, "N000-0000-0000-0000-0000-0000-0000-0001")
	factory.CreateUser(t, "olga")

	users, err := storage.ListUsersWithActiveSubscription(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, users, 3)

	byName := make(map[string]models.UserWithSubscription, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	require.NotNil(t, byName["mia"].Subscription)
	assert.Equal(t, models.PlanPro, byName["mia"].Subscription.PlanType)
	assert.Equal(t, withSub.ID, byName["mia"].Subscription.UserID)
	assert.Nil(t, byName["ned"].Subscription)
	assert.Nil(t, byName["olga"].Subscription)
}

func TestStorage_DeleteUser(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	u := factory.CreateUser(t, "paul")
	now := time.Now()
	factory.CreateSubscription(t, u.ID, models.PlanBasic, models.SubscriptionActive, now.Add(day), now, "P000-0000-0000-0000-0000-0000-0000-0001")
	factory.CreateCompletedPayment(t, u.ID, "19.90", now)
	_, err := storage.CreateBotSession(ctx, u.ID, now)
	require.NoError(t, err)

	require.NoError(t, storage.DeleteUser(ctx, u.ID))

	for _, table := range []string{"subscriptions", "payments", "bot_sessions"} {
		assert.Zero(t, countRows(t, storage, table, u.ID), table)
	}
	_, err = storage.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, storage.DeleteUser(ctx, u.ID), models.ErrNotFound)
}

func TestStorage_SystemStats(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	monthStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	oldUser := factory.CreateUser(t, "quinn")
	factory.SetUserCreatedAt(t, oldUser.ID, monthStart.Add(-day))
	newUser := factory.CreateUser(t, "rita")
	factory.SetUserCreatedAt(t, newUser.ID, monthStart.Add(day))

	factory.CreateSubscription(t, oldUser.ID, models.PlanBasic, models.SubscriptionActive, now.Add(day), now, "Q000-0000-0000-0000-0000-0000-0000-0001")
	factory.CreateSubscription(t, newUser.ID, models.PlanBasic, models.SubscriptionActive, now.Add(-day), now, "R000-0000-0000-0000-0000-0000-0000-0001")
	factory.CreateCompletedPayment(t, oldUser.ID, "19.90", monthStart.Add(2*day))
	factory.CreateCompletedPayment(t, newUser.ID, "69.90", monthStart.Add(3*day))
	factory.CreateCompletedPayment(t, newUser.ID, "39.90", monthStart.Add(-2*day))

	stats, err := storage.SystemStats(context.Background(), now, monthStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ActiveSubscriptions)
	assert.Equal(t, int64(1), stats.NewUsersThisMonth)
	assert.True(t, decimal.RequireFromString("89.80").Equal(stats.MonthlyRevenue), "got %s", stats.MonthlyRevenue)
}

func TestStorage_RunInTx_Rollback(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := storage.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := storage.CreateUser(ctx, models.User{
			Username: "sam", Email: "sam@example.com", PasswordHash: "h", FullName: "Sam",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = storage.GetUserByUsername(ctx, "sam")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
