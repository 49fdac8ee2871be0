package botsession

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) session(args mock.Arguments) (*models.BotSession, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BotSession), args.Error(1)
}

func (m *RepoMock) CreateBotSession(ctx context.Context, userID int64, start time.Time) (*models.BotSession, error) {
	return m.session(m.Called(ctx, userID, start))
}

func (m *RepoMock) UpdateBotSession(ctx context.Context, userID, sessionID int64, fishCaught, skillsUsed int) (*models.BotSession, error) {
	return m.session(m.Called(ctx, userID, sessionID, fishCaught, skillsUsed))
}

func (m *RepoMock) EndBotSession(ctx context.Context, userID, sessionID int64, end time.Time) (*models.BotSession, error) {
	return m.session(m.Called(ctx, userID, sessionID, end))
}

func (m *RepoMock) ListBotSessionsByUser(ctx context.Context, userID int64) ([]models.BotSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BotSession), args.Error(1)
}

type SubsMock struct {
	mock.Mock
}

func (m *SubsMock) GetActive(ctx context.Context, userID int64) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *RepoMock, subs *SubsMock) *Service {
	s := New(repo, subs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_Start(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *RepoMock, s *SubsMock)
		wantErr error
	}{
		{
			name: "active subscription",
			setup: func(r *RepoMock, s *SubsMock) {
				s.On("GetActive", mock.Anything, int64(1)).Return(&models.Subscription{ID: 9}, nil).Once()
				r.On("CreateBotSession", mock.Anything, int64(1), fixedNow).
					Return(&models.BotSession{ID: 4, UserID: 1, Status: models.SessionActive}, nil).Once()
			},
		},
		{
			name: "no subscription",
			setup: func(_ *RepoMock, s *SubsMock) {
				s.On("GetActive", mock.Anything, int64(1)).Return(nil, nil).Once()
			},
			wantErr: models.ErrSubscriptionRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, subs := new(RepoMock), new(SubsMock)
			tt.setup(repo, subs)

			bs, err := newTestService(repo, subs).Start(context.Background(), 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateBotSession", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(4), bs.ID)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Start_SubscriptionLookupFails(t *testing.T) {
	repo, subs := new(RepoMock), new(SubsMock)
	subs.On("GetActive", mock.Anything, int64(1)).Return(nil, errors.New("db down")).Once()

	_, err := newTestService(repo, subs).Start(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrSubscriptionRequired)
}

func TestService_Update(t *testing.T) {
	tests := []struct {
		name    string
		fish    int
		skills  int
		repoErr error
		wantErr error
	}{
		{name: "counters saved", fish: 12, skills: 3},
		{name: "negative fish", fish: -1, skills: 0, wantErr: models.ErrInvalidCounters},
		{name: "negative skills", fish: 0, skills: -5, wantErr: models.ErrInvalidCounters},
		{name: "foreign or ended session", fish: 1, skills: 1, repoErr: models.ErrNotFound, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.wantErr == nil || tt.repoErr != nil {
				var ret any
				if tt.repoErr == nil {
					ret = &models.BotSession{ID: 4, FishCaught: tt.fish, SkillsUsed: tt.skills}
				}
				repo.On("UpdateBotSession", mock.Anything, int64(1), int64(4), tt.fish, tt.skills).Return(ret, tt.repoErr).Once()
			}

			bs, err := newTestService(repo, new(SubsMock)).Update(context.Background(), 1, 4, tt.fish, tt.skills)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.fish, bs.FishCaught)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_End(t *testing.T) {
	repo := new(RepoMock)
	end := fixedNow
	repo.On("EndBotSession", mock.Anything, int64(1), int64(4), fixedNow).
		Return(&models.BotSession{ID: 4, SessionEnd: &end, Status: models.SessionEnded}, nil).Once()
	repo.On("EndBotSession", mock.Anything, int64(1), int64(5), fixedNow).Return(nil, models.ErrNotFound).Once()

	s := newTestService(repo, new(SubsMock))
	bs, err := s.End(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, bs.Status)
	require.NotNil(t, bs.SessionEnd)
	assert.Equal(t, fixedNow, *bs.SessionEnd)

	_, err = s.End(context.Background(), 1, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_ListForUser(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListBotSessionsByUser", mock.Anything, int64(1)).
		Return([]models.BotSession{{ID: 2}, {ID: 1}}, nil).Once()

	sessions, err := newTestService(repo, new(SubsMock)).ListForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}
