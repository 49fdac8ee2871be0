// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (опционально, при неуспехе).
// Поле Data: данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// StatusFor переводит ошибку сервиса в HTTP статус и безопасное сообщение для клиента.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, models.ErrInvalidLicense):
		return http.StatusUnauthorized, "Invalid license key"
	case errors.Is(err, models.ErrLicenseExpired):
		return http.StatusUnauthorized, "License expired"
	case errors.Is(err, models.ErrSubscriptionRequired):
		return http.StatusForbidden, "active subscription required"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	// занятые логин и e-mail клиенты портала ждут как 400
	case errors.Is(err, models.ErrUsernameTaken):
		return http.StatusBadRequest, "username already exists"
	case errors.Is(err, models.ErrEmailTaken):
		return http.StatusBadRequest, "email already exists"
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusBadRequest, "already exists"
	case errors.Is(err, models.ErrPaymentNotPending):
		return http.StatusConflict, "payment is not pending"
	case errors.Is(err, models.ErrInvalidPlan):
		return http.StatusUnprocessableEntity, "invalid plan type"
	case errors.Is(err, models.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity, "invalid payment method"
	case errors.Is(err, models.ErrInvalidStatus):
		return http.StatusUnprocessableEntity, "invalid status"
	case errors.Is(err, models.ErrInvalidCounters):
		return http.StatusUnprocessableEntity, "counters must not be negative"
	case errors.Is(err, models.ErrPasswordTooLong):
		return http.StatusUnprocessableEntity, "field Password must be at most 72 bytes"
	}
	return http.StatusInternalServerError, "internal error"
}

// Fail пишет ответ об ошибке. Пятисотые логируются как error, остальные как info.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, msg string, err error) {
	status, text := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Info(msg, slog.Int("status", status), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, Error(text))
}

// WithStatus пишет resp с явным HTTP статусом.
func WithStatus(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}
