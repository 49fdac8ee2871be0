// Package validatelicense проверка ключа лицензии клиентом бота. Токен не нужен.
package validatelicense

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Request ключ, введённый в клиенте.
type Request struct {
	LicenseKey string `json:"license_key" validate:"required,max=64"`
}

// Result ответ на успешную проверку. Клиент получает его в поле data конверта response.Response.
type Result struct {
	Valid     bool            `json:"valid"`
	PlanType  models.PlanType `json:"planType"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Service проверка ключа.
type Service interface {
	Validate(ctx context.Context, licenseKey string) (*models.Subscription, error)
}

// Handler обрабатывает проверку лицензии.
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
// @Summary Проверить лицензию
// @Description Вызывается клиентом бота при запуске. Результат лежит в поле data общего конверта: {"status":"OK","data":{"valid":true,"planType":...,"expiresAt":...}}
// @Tags Bot
// @Accept  json
// @Produce  json
// @Param request body Request true "Ключ лицензии"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Ключ неизвестен или подписка истекла"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /bot/validate-license [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bot.validate_license"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	sub, err := h.service.Validate(r.Context(), req.LicenseKey)
	if err != nil {
		response.Fail(w, r, log, "license rejected", err)
		return
	}

	render.JSON(w, r, response.OKWithData(Result{
		Valid:     true,
		PlanType:  sub.PlanType,
		ExpiresAt: sub.ExpiresAt,
	}))
}
