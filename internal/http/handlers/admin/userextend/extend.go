// Package userextend ручное продление подписки пользователя администратором.
package userextend

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

// Request на сколько суток продлить.
type Request struct {
	Days int `json:"days" validate:"required,min=1,max=3650"`
}

// Service продление подписки. Без подписок возвращает nil, nil.
type Service interface {
	Extend(ctx context.Context, userID int64, days int) (*models.Subscription, error)
}

// Handler обрабатывает продление.
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
// @Summary Продлить подписку
// @Description Продлевает последнюю подписку пользователя от max(окончание, сейчас). Если подписок нет, extended=false.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID пользователя"
// @Param request body Request true "Количество суток"
// @Success 200 {object} response.Response "extended и subscription"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /admin/users/{id}/extend [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.extend"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
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

	sub, err := h.service.Extend(r.Context(), userID, req.Days)
	if err != nil {
		response.Fail(w, r, log, "failed to extend subscription", err)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"extended":     sub != nil,
		"subscription": sub,
	}))
}
