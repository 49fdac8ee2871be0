package sessionend

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) End(ctx context.Context, userID, sessionID int64) (*models.BotSession, error) {
	args := m.Called(ctx, userID, sessionID)
	bs, _ := args.Get(0).(*models.BotSession)
	return bs, args.Error(1)
}

func TestSessionEndHandler_ServeHTTP(t *testing.T) {
	ended := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		id    string
		setup func(*MockService)
		want  int
	}{
		{
			name: "ends session",
			id:   "3",
			setup: func(s *MockService) {
				s.On("End", mock.Anything, int64(2), int64(3)).
					Return(&models.BotSession{ID: 3, Status: models.SessionEnded, SessionEnd: &ended}, nil).Once()
			},
			want: http.StatusOK,
		},
		{
			name: "not owner",
			id:   "4",
			setup: func(s *MockService) {
				s.On("End", mock.Anything, int64(2), int64(4)).Return(nil, models.ErrNotFound).Once()
			},
			want: http.StatusNotFound,
		},
		{name: "bad id", id: "-1", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.setup != nil {
				tt.setup(svc)
			}
			r := chi.NewRouter()
			r.Post("/bot/session/{id}/end", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodPost, "/bot/session/"+tt.id+"/end", nil)
			req = req.WithContext(middlewarectx.WithIdentity(req.Context(), models.Identity{UserID: 2}))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}
