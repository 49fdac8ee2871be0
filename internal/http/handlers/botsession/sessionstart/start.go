// Package sessionstart открытие сессии бота.
package sessionstart

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

// Service открытие сессии.
type Service interface {
	Start(ctx context.Context, userID int64) (*models.BotSession, error)
}

// Handler обрабатывает старт сессии.
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
// @Summary Начать сессию бота
// @Tags Bot
// @Produce  json
// @Success 201 {object} response.Response{data=models.BotSession}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет активной подписки"
// @Security BearerAuth
// @Router /bot/session/start [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.botsession.start"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	session, err := h.service.Start(r.Context(), id.UserID)
	if err != nil {
		response.Fail(w, r, log, "failed to start session", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(session))
}
