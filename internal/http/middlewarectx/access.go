package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-portal/internal/http/response"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// ActiveSubscriptions источник активной подписки пользователя.
type ActiveSubscriptions interface {
	GetActive(ctx context.Context, userID int64) (*models.Subscription, error)
}

// RequireAdmin пропускает только администраторов. Ставится после Authenticate.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				unauthorized(w, r, "user identification missing")
				return
			}
			if !id.IsAdmin {
				log.Warn("non-admin on admin route",
					slog.Int64("user_id", id.UserID), slog.String("path", r.URL.Path))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActiveSubscription пропускает только пользователей с активной подпиской.
func RequireActiveSubscription(log *slog.Logger, subs ActiveSubscriptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				unauthorized(w, r, "user identification missing")
				return
			}

			sub, err := subs.GetActive(r.Context(), id.UserID)
			if err != nil {
				log.Error("failed to get active subscription", slog.Int64("user_id", id.UserID), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}
			if sub == nil {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("active subscription required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
