// Package paymentlist история платежей текущего пользователя.
package paymentlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Service определяет интерфейс для получения платежей.
type Service interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Payment, error)
}

// Handler обрабатывает запросы на список платежей.
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
// @Summary Мои платежи
// @Description Возвращает платежи пользователя, новые первыми
// @Tags Payments
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /user/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	payments, err := h.service.ListForUser(r.Context(), id.UserID)
	if err != nil {
		response.Fail(w, r, log, "failed to list payments", err)
		return
	}

	log.Debug("payments listed", slog.Int("count", len(payments)))
	render.JSON(w, r, response.OKWithData(payments))
}
