// Package sessionlist история сессий бота пользователя.
package sessionlist

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

// Service чтение сессий.
type Service interface {
	ListForUser(ctx context.Context, userID int64) ([]models.BotSession, error)
}

// Handler отдаёт сессии пользователя.
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
// @Summary Сессии бота
// @Description Новые первыми
// @Tags Bot
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.BotSession}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Security BearerAuth
// @Router /user/sessions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.botsession.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	sessions, err := h.service.ListForUser(r.Context(), id.UserID)
	if err != nil {
		response.Fail(w, r, log, "failed to list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.BotSession{}
	}
	render.JSON(w, r, response.OKWithData(sessions))
}
