package paymentcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, userID int64, planType models.PlanType, method models.PaymentMethod) (*models.PaymentInstructions, error) {
	args := m.Called(ctx, userID, planType, method)
	pi, _ := args.Get(0).(*models.PaymentInstructions)
	return pi, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPaymentCreateHandler_ServeHTTP(t *testing.T) {
	instructions := &models.PaymentInstructions{
		PaymentID:  12,
		Amount:     "39.90",
		Currency:   "BRL",
		PixCode:    "00020126330015BR.PIX.0000000012",
		QRCodeData: "00020126330015BR.PIX.0000000012",
		Status:     models.PaymentPending,
	}

	tests := []struct {
		name           string
		requestBody    string
		authenticated  bool
		setupMocks     func(*MockService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:          "pix by default",
			requestBody:   `{"planType":"premium"}`,
			authenticated: true,
			setupMocks: func(s *MockService) {
				s.On("Create", mock.Anything, int64(1), models.PlanPremium, models.MethodPix).Return(instructions, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "explicit method",
			requestBody:   `{"planType":"premium","paymentMethod":"boleto"}`,
			authenticated: true,
			setupMocks: func(s *MockService) {
				s.On("Create", mock.Anything, int64(1), models.PlanPremium, models.MethodBoleto).Return(instructions, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown plan",
			requestBody:    `{"planType":"enterprise"}`,
			authenticated:  true,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "field PlanType must be one of",
		},
		{
			name:           "unknown method",
			requestBody:    `{"planType":"pro","paymentMethod":"crypto"}`,
			authenticated:  true,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "field PaymentMethod must be one of",
		},
		{
			name:           "invalid json",
			requestBody:    `{`,
			authenticated:  true,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "unauthenticated",
			requestBody:    `{"planType":"pro"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:          "service error",
			requestBody:   `{"planType":"pro"}`,
			authenticated: true,
			setupMocks: func(s *MockService) {
				s.On("Create", mock.Anything, int64(1), models.PlanPro, models.MethodPix).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.setupMocks != nil {
				tt.setupMocks(svc)
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/create", bytes.NewBufferString(tt.requestBody))
			if tt.authenticated {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), models.Identity{UserID: 1}))
			}
			rr := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			if tt.expectedError != "" {
				assert.Contains(t, resp.Error, tt.expectedError)
			}
			if tt.expectedStatus == http.StatusOK {
				data := resp.Data.(map[string]any)
				assert.Equal(t, "00020126330015BR.PIX.0000000012", data["pixCode"])
				assert.Equal(t, data["pixCode"], data["qrCodeData"])
				assert.Equal(t, "39.90", data["amount"])
			}
			svc.AssertExpectations(t)
		})
	}
}
