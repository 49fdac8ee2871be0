// Package paymentcreate обрабатывает создание платежа за тариф.
package paymentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Request запрос на создание платежа. Способ оплаты по умолчанию pix.
type Request struct {
	PlanType      string `json:"planType" validate:"required,oneof=basic premium pro"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=pix card boleto"`
}

// Service определяет интерфейс для работы с платежами.
type Service interface {
	Create(ctx context.Context, userID int64, planType models.PlanType, method models.PaymentMethod) (*models.PaymentInstructions, error)
}

// Handler обрабатывает запросы на создание платежей.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис платежей
	validate *validator.Validate // Валидатор структуры входящих данных
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
// @Summary Создать платеж
// @Description Заводит ожидающий платёж за тариф и возвращает PIX-код для оплаты
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Тариф и способ оплаты"
// @Success 200 {object} response.Response{data=models.PaymentInstructions} "Инструкции для оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Неизвестный тариф или способ оплаты"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /payments/create [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		response.WithStatus(w, r, http.StatusUnauthorized, response.Error("user identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WithStatus(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.WithStatus(w, r, http.StatusUnprocessableEntity, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	method := models.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = models.MethodPix
	}

	instructions, err := h.service.Create(r.Context(), id.UserID, models.PlanType(req.PlanType), method)
	if err != nil {
		response.Fail(w, r, log, "failed to create payment", err)
		return
	}

	log.Info("payment created", slog.Int64("payment_id", instructions.PaymentID))
	render.JSON(w, r, response.OKWithData(instructions))
}
