// Package paymentcomplete подтверждение оплаты. Платёжного шлюза нет, подтверждает сам пользователь.
package paymentcomplete

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Service завершение платежа с выдачей подписки.
type Service interface {
	Complete(ctx context.Context, userID, paymentID int64) (*models.Payment, *models.Subscription, error)
}

// Handler обрабатывает подтверждение платежа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подтвердить платеж
// @Description Завершает ожидающий платёж и активирует или продлевает подписку на оплаченный тариф
// @Tags Payments
// @Produce  json
// @Param id path int true "ID платежа"
// @Success 200 {object} response.Response "Платёж и подписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 409 {object} response.ErrorResponse "Платёж уже обработан"
// @Security BearerAuth
// @Router /payments/{id}/complete [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.complete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	paymentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || paymentID <= 0 {
		log.Info("invalid id format", slog.String("id", chi.URLParam(r, "id")))
		response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid id"))
		return
	}

	payment, sub, err := h.service.Complete(r.Context(), id.UserID, paymentID)
	if err != nil {
		response.Fail(w, r, log, "failed to complete payment", err)
		return
	}

	log.Info("payment completed", slog.Int64("payment_id", payment.ID), slog.Int64("subscription_id", sub.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message":      "Payment completed and subscription activated",
		"payment":      payment,
		"subscription": sub,
	}))
}
