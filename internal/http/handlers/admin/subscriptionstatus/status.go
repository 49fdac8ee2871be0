// Package subscriptionstatus ручная смена статуса подписки.
package subscriptionstatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Request новый статус подписки.
type Request struct {
	Status string `json:"status" validate:"required,oneof=active expired cancelled"`
}

// Service смена статуса.
type Service interface {
	SetStatus(ctx context.Context, id int64, status models.SubscriptionStatus) (*models.Subscription, error)
}

// Handler обрабатывает смену статуса подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сменить статус подписки
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID подписки"
// @Param request body Request true "Новый статус"
// @Success 200 {object} response.Response{data=models.Subscription}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Недопустимый статус"
// @Security BearerAuth
// @Router /admin/subscriptions/{id}/status [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscription_status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || subID <= 0 {
		response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.WithStatus(w, r, http.StatusUnprocessableEntity, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.SetStatus(r.Context(), subID, models.SubscriptionStatus(req.Status))
	if err != nil {
		response.Fail(w, r, log, "failed to update subscription status", err)
		return
	}

	log.Info("subscription status changed", slog.Int64("subscription_id", subID), slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithData(sub))
}
