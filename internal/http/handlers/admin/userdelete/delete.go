// Package userdelete удаление пользователя вместе с его подписками, платежами и сессиями.
package userdelete

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
)

// Service удаление пользователя.
type Service interface {
	Delete(ctx context.Context, id int64) error
}

// Handler обрабатывает удаление.
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
// @Summary Удалить пользователя
// @Tags Admin
// @Produce  json
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.delete_user"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID <= 0 {
		response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid id"))
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		response.Fail(w, r, log, "failed to delete user", err)
		return
	}

	log.Info("user deleted", slog.Int64("user_id", userID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "User deleted successfully",
	}))
}
