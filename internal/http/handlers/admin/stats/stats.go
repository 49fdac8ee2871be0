// Package stats сводная статистика для админки.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Service агрегаты по системе.
type Service interface {
	SystemStats(ctx context.Context) (*models.SystemStats, error)
}

// Handler отдаёт статистику.
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
// @Summary Статистика
// @Description Пользователи, активные подписки, выручка и новые пользователи за текущий месяц
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response{data=models.SystemStats}
// @Failure 403 {object} response.ErrorResponse "Нужны права администратора"
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.SystemStats(r.Context())
	if err != nil {
		response.Fail(w, r, log, "failed to collect stats", err)
		return
	}
	render.JSON(w, r, response.OKWithData(stats))
}
