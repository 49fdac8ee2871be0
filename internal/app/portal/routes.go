// Package portal собирает HTTP API портала: маршруты, middleware и жизненный цикл сервера.
package portal

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации для /docs.
	_ "github.com/magabrotheeeer/license-portal/docs"
	"github.com/magabrotheeeer/license-portal/internal/config"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/admin/expiring"
	adminstats "github.com/magabrotheeeer/license-portal/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/admin/subscriptionstatus"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/admin/userdelete"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/admin/userextend"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/admin/userlist"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/bot/download"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/bot/validatelicense"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/botsession/sessionend"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/botsession/sessionlist"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/botsession/sessionstart"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/botsession/sessionupdate"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/health"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/payment/paymentcomplete"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/payment/paymentstatus"
	"github.com/magabrotheeeer/license-portal/internal/http/handlers/subscription/active"
	"github.com/magabrotheeeer/license-portal/internal/http/middlewarectx"
)

// AccountService всё, что маршрутам нужно от сервиса учётных записей.
type AccountService interface {
	register.Service
	login.Service
	logout.Service
	me.Service
	userlist.Service
	userdelete.Service
}

// SubscriptionService всё, что маршрутам нужно от сервиса подписок.
type SubscriptionService interface {
	middlewarectx.ActiveSubscriptions
	validatelicense.Service
	userextend.Service
	expiring.Service
	subscriptionstatus.Service
}

// PaymentService всё, что маршрутам нужно от сервиса платежей.
type PaymentService interface {
	paymentcreate.Service
	paymentcomplete.Service
	paymentlist.Service
	paymentstatus.Service
}

// SessionService всё, что маршрутам нужно от сервиса сессий бота.
type SessionService interface {
	sessionstart.Service
	sessionlist.Service
	sessionupdate.Service
	sessionend.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Accounts      AccountService
	Subscriptions SubscriptionService
	Payments      PaymentService
	Sessions      SessionService
	Stats         adminstats.Service
	Tokens        middlewarectx.TokenParser
	Revocations   middlewarectx.Revocations
	DB            health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.Metrics,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	authenticate := middlewarectx.Authenticate(d.Tokens, d.Revocations, logger)
	limited := middlewarectx.RateLimit(logger, cfg.RequestsPerSecond, cfg.Burst)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/auth/register", register.New(logger, d.Accounts).ServeHTTP)
			r.Post("/auth/login", login.New(logger, d.Accounts).ServeHTTP)
			r.Post("/bot/validate-license", validatelicense.New(logger, d.Subscriptions).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/auth/logout", logout.New(logger, d.Accounts).ServeHTTP)
			r.Get("/auth/me", me.New(logger, d.Accounts).ServeHTTP)

			r.Get("/user/subscription", active.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/user/sessions", sessionlist.New(logger, d.Sessions).ServeHTTP)
			r.Get("/user/payments", paymentlist.New(logger, d.Payments).ServeHTTP)

			r.Post("/payments/create", paymentcreate.New(logger, d.Payments).ServeHTTP)
			r.Post("/payments/{id}/complete", paymentcomplete.New(logger, d.Payments).ServeHTTP)

			r.Put("/bot/session/{id}", sessionupdate.New(logger, d.Sessions).ServeHTTP)
			r.Post("/bot/session/{id}/end", sessionend.New(logger, d.Sessions).ServeHTTP)

			// Только с активной подпиской
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireActiveSubscription(logger, d.Subscriptions))
				r.Get("/bot/download", download.New(logger, cfg.ArtifactPath, cfg.FileName, cfg.PublicURL).ServeHTTP)
				r.Post("/bot/session/start", sessionstart.New(logger, d.Sessions).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Get("/stats", adminstats.New(logger, d.Stats).ServeHTTP)
				r.Get("/users", userlist.New(logger, d.Accounts).ServeHTTP)
				r.Post("/users/{id}/extend", userextend.New(logger, d.Subscriptions).ServeHTTP)
				r.Delete("/users/{id}", userdelete.New(logger, d.Accounts).ServeHTTP)
				r.Get("/expiring-subscriptions", expiring.New(logger, d.Subscriptions).ServeHTTP)
				r.Put("/subscriptions/{id}/status", subscriptionstatus.New(logger, d.Subscriptions).ServeHTTP)
				r.Put("/payments/{id}/status", paymentstatus.New(logger, d.Payments).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
