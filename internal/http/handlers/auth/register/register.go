// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Регистрация создаёт обычную учётную запись (без прав администратора) и сразу выдаёт токен доступа.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/password"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
	"github.com/magabrotheeeer/license-portal/internal/services/account"
)

// Request структура входных данных для регистрации.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"fullName" validate:"required,max=100"`
}

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, username, email, rawPassword, fullName string) (*account.Session, error)
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
// @Summary Регистрация пользователя
// @Description Создает учётную запись и возвращает её вместе с токеном доступа.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 200 {object} response.Response "Пользователь и токен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, имя пользователя или e-mail заняты"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации, в том числе пароль длиннее 72 байт"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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
	log.Info("request body decoded", slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.WithStatus(w, r, http.StatusUnprocessableEntity, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	// max в теге считает руны, а bcrypt ограничен байтами
	if len(req.Password) > password.MaxBytes {
		log.Info("password exceeds bcrypt limit", slog.Int("bytes", len(req.Password)))
		response.Fail(w, r, log, "validation failed", models.ErrPasswordTooLong)
		return
	}

	sess, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		response.Fail(w, r, log, "registration failed", err)
		return
	}

	log.Info("user registered", slog.Int64("user_id", sess.User.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":  sess.User,
		"token": sess.Token,
	}))
}
