// Package expiring подписки, которые скоро закончатся.
package expiring

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

const (
	defaultDays = 7
	maxDays     = 365
)

// Service поиск истекающих подписок.
type Service interface {
	Expiring(ctx context.Context, days int) ([]models.Subscription, error)
}

// Handler отдаёт истекающие подписки.
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
// @Summary Истекающие подписки
// @Description Активные подписки, которые закончатся в ближайшие days суток
// @Tags Admin
// @Produce  json
// @Param days query int false "Горизонт в сутках" default(7)
// @Success 200 {object} response.Response{data=[]models.Subscription}
// @Failure 400 {object} response.ErrorResponse "Некорректный days"
// @Security BearerAuth
// @Router /admin/expiring-subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.expiring"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxDays {
			log.Info("invalid days parameter", slog.String("days", raw))
			response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid days parameter"))
			return
		}
		days = n
	}

	subs, err := h.service.Expiring(r.Context(), days)
	if err != nil {
		response.Fail(w, r, log, "failed to list expiring subscriptions", err)
		return
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	render.JSON(w, r, response.OKWithData(subs))
}
