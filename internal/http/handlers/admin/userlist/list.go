// Package userlist список пользователей с их активными подписками.
package userlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Service чтение пользователей.
type Service interface {
	ListWithSubscriptions(ctx context.Context) ([]models.UserWithSubscription, error)
}

// Handler отдаёт пользователей.
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
// @Summary Пользователи
// @Description Все пользователи, у каждого активная подписка или null
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.UserWithSubscription}
// @Failure 403 {object} response.ErrorResponse "Нужны права администратора"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users, err := h.service.ListWithSubscriptions(r.Context())
	if err != nil {
		response.Fail(w, r, log, "failed to list users", err)
		return
	}
	if users == nil {
		users = []models.UserWithSubscription{}
	}
	render.JSON(w, r, response.OKWithData(users))
}
