package me

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Get(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestMeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name      string
		withID    bool
		user      *models.User
		err       error
		want      int
		wantEmail string
	}{
		{name: "profile", withID: true, user: &models.User{ID: 5, Username: "carol", Email: "carol@example.com"}, want: http.StatusOK, wantEmail: "carol@example.com"},
		{name: "deleted user", withID: true, err: fmt.Errorf("account.Get: %w", models.ErrNotFound), want: http.StatusNotFound},
		{name: "no identity", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.withID {
				svc.On("Get", mock.Anything, int64(5)).Return(tt.user, tt.err).Once()
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), models.Identity{UserID: 5}))
			}

			rr := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)

			if tt.wantEmail != "" {
				var resp response.Response
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantEmail, resp.Data.(map[string]any)["email"])
			}
			svc.AssertExpectations(t)
		})
	}
}
