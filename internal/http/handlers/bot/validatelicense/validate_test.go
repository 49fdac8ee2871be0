package validatelicense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-portal/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Validate(ctx context.Context, licenseKey string) (*models.Subscription, error) {
	args := m.Called(ctx, licenseKey)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

func TestValidateLicenseHandler_ServeHTTP(t *testing.T) {
	const key = "AAAA-BBBB-CCCC-DDDD-EEEE-FFFF-0000-1111"
	expires := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		body    string
		setup   func(*MockService)
		want    int
		wantErr string
	}{
		{
			name: "valid key",
			body: `{"license_key":"` + key + `"}`,
			setup: func(s *MockService) {
				s.On("Validate", mock.Anything, key).
					Return(&models.Subscription{PlanType: models.PlanPremium, ExpiresAt: expires, Status: models.SubscriptionActive}, nil).Once()
			},
			want: http.StatusOK,
		},
		{
			name: "unknown key",
			body: `{"license_key":"nope"}`,
			setup: func(s *MockService) {
				s.On("Validate", mock.Anything, "nope").Return(nil, fmt.Errorf("subscription.Validate: %w", models.ErrInvalidLicense)).Once()
			},
			want:    http.StatusUnauthorized,
			wantErr: "Invalid license key",
		},
		{
			name: "expired key",
			body: `{"license_key":"` + key + `"}`,
			setup: func(s *MockService) {
				s.On("Validate", mock.Anything, key).Return(nil, fmt.Errorf("subscription.Validate: %w", models.ErrLicenseExpired)).Once()
			},
			want:    http.StatusUnauthorized,
			wantErr: "License expired",
		},
		{name: "missing key", body: `{}`, want: http.StatusUnprocessableEntity},
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.setup != nil {
				tt.setup(svc)
			}
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/bot/validate-license", bytes.NewBufferString(tt.body))
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			var resp struct {
				Error string `json:"error"`
				Data  Result `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, resp.Error)
			}
			if tt.want == http.StatusOK {
				assert.True(t, resp.Data.Valid)
				assert.Equal(t, models.PlanPremium, resp.Data.PlanType)
				assert.True(t, expires.Equal(resp.Data.ExpiresAt))
			}
			svc.AssertExpectations(t)
		})
	}
}
