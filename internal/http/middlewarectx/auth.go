// Package middlewarectx содержит HTTP middleware портала: проверку токена доступа,
// проверку прав администратора и активной подписки, ограничение частоты запросов и метрики.
//
// Authenticate проверяет JWT в заголовке Authorization и кладёт models.Identity
// в контекст запроса. Обработчики получают её только через IdentityFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// identityKey ключ идентичности автора запроса.
const identityKey Key = "identity"

// TokenParser разбирает и проверяет токен доступа.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Revocations список отозванных при выходе токенов.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// WithIdentity возвращает контекст с идентичностью.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom достаёт идентичность, положенную Authenticate.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok && id.UserID != 0
}

// Authenticate возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Отсутствующий, невалидный, просроченный или отозванный токен: 401 Unauthorized.
// Если хранилище отзывов недоступно, запрос пропускается с предупреждением в логе.
func Authenticate(parser TokenParser, revocations Revocations, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				unauthorized(w, r, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				unauthorized(w, r, "invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.ID)
				switch {
				case err != nil:
					log.Warn("failed to check token revocation", sl.Err(err))
				case revoked:
					log.Info("revoked token used", slog.Int64("user_id", claims.UserID))
					unauthorized(w, r, "token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(msg))
}
