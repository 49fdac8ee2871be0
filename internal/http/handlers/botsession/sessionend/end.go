// Package sessionend закрытие сессии бота.
package sessionend

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

// Service закрытие сессии.
type Service interface {
	End(ctx context.Context, userID, sessionID int64) (*models.BotSession, error)
}

// Handler обрабатывает завершение сессии.
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
// @Summary Завершить сессию бота
// @Tags Bot
// @Produce  json
// @Param id path int true "ID сессии"
// @Success 200 {object} response.Response{data=models.BotSession}
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Security BearerAuth
// @Router /bot/session/{id}/end [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.botsession.end"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || sessionID <= 0 {
		response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid id"))
		return
	}

	session, err := h.service.End(r.Context(), id.UserID, sessionID)
	if err != nil {
		response.Fail(w, r, log, "failed to end session", err)
		return
	}
	render.JSON(w, r, response.OKWithData(session))
}
