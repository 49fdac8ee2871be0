// Package me отдаёт профиль автора запроса.
package me

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

// Handler профиль текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service чтение пользователя.
type Service interface {
	Get(ctx context.Context, id int64) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Профиль владельца токена. Если пользователь удалён, вернётся 404.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response{data=models.User}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	user, err := h.service.Get(r.Context(), id.UserID)
	if err != nil {
		response.Fail(w, r, log, "failed to get user", err)
		return
	}
	render.JSON(w, r, response.OKWithData(user))
}
