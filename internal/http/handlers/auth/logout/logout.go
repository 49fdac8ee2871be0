// Package logout отзывает токен, с которым пришёл запрос.
package logout

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

// Handler обрабатывает выход пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service отзыв токена.
type Service interface {
	Logout(ctx context.Context, id models.Identity) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущий токен доступа до истечения его срока.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	if err := h.service.Logout(r.Context(), id); err != nil {
		response.Fail(w, r, log, "logout failed", err)
		return
	}

	log.Info("logged out", slog.Int64("user_id", id.UserID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "Logged out successfully",
	}))
}
