// Package sessionupdate запись счётчиков активной сессии бота.
package sessionupdate

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

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Request текущие значения счётчиков.
type Request struct {
	FishCaught *int `json:"fishCaught" validate:"required,min=0"`
	SkillsUsed *int `json:"skillsUsed" validate:"required,min=0"`
}

// Service обновление сессии.
type Service interface {
	Update(ctx context.Context, userID, sessionID int64, fishCaught, skillsUsed int) (*models.BotSession, error)
}

// Handler обрабатывает обновление сессии.
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
// @Summary Обновить сессию бота
// @Description Счётчики перезаписываются целиком, сессия должна быть активной и принадлежать пользователю
// @Tags Bot
// @Accept  json
// @Produce  json
// @Param id path int true "ID сессии"
// @Param request body Request true "Счётчики"
// @Success 200 {object} response.Response{data=models.BotSession}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /bot/session/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.botsession.update"

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

	session, err := h.service.Update(r.Context(), id.UserID, sessionID, *req.FishCaught, *req.SkillsUsed)
	if err != nil {
		response.Fail(w, r, log, "failed to update session", err)
		return
	}
	render.JSON(w, r, response.OKWithData(session))
}
