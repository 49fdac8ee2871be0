package paymentlist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListForUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	args := m.Called(ctx, userID)
	payments, _ := args.Get(0).([]models.Payment)
	return payments, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestPaymentListHandler_ServeHTTP(t *testing.T) {
	payments := []models.Payment{
		{ID: 2, UserID: 1, Amount: decimal.RequireFromString("19.90"), Status: models.PaymentPending},
		{ID: 1, UserID: 1, Amount: decimal.RequireFromString("69.90"), Status: models.PaymentCompleted},
	}

	tests := []struct {
		name      string
		withID    bool
		setup     func(*MockService)
		want      int
		wantCount int
	}{
		{
			name:   "lists payments",
			withID: true,
			setup: func(s *MockService) {
				s.On("ListForUser", mock.Anything, int64(1)).Return(payments, nil).Once()
			},
			want:      http.StatusOK,
			wantCount: 2,
		},
		{
			name:   "empty list",
			withID: true,
			setup: func(s *MockService) {
				s.On("ListForUser", mock.Anything, int64(1)).Return([]models.Payment{}, nil).Once()
			},
			want: http.StatusOK,
		},
		{
			name:   "service error",
			withID: true,
			setup: func(s *MockService) {
				s.On("ListForUser", mock.Anything, int64(1)).Return(nil, errors.New("db down")).Once()
			},
			want: http.StatusInternalServerError,
		},
		{name: "unauthenticated", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.setup != nil {
				tt.setup(svc)
			}
			req := httptest.NewRequest(http.MethodGet, "/user/payments", nil)
			if tt.withID {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), models.Identity{UserID: 1}))
			}
			rr := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK && tt.wantCount > 0 {
				var resp struct {
					Data []models.Payment `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Len(t, resp.Data, tt.wantCount)
				assert.True(t, resp.Data[1].Amount.Equal(decimal.RequireFromString("69.90")))
			}
			svc.AssertExpectations(t)
		})
	}
}
