package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"storefront/internal/metrics"
	"storefront/internal/mw"
)

type Deps struct {
	Auth      AuthService
	Orders    OrderService
	Payments  PaymentVerifier
	Delivery  DeliveryChecker
	DB        Pinger
	Metrics   *metrics.Metrics
	JWTSecret string
	TokenTTL  time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/auth/register", RegisterHandler(d.Auth, d.JWTSecret, d.TokenTTL))
	r.Post("/api/auth/login", LoginHandler(d.Auth, d.JWTSecret, d.TokenTTL))
	r.Get("/delivery/check", CheckDeliveryHandler(d.Delivery))
	if d.DB != nil {
		r.Get("/health", HealthHandler(d.DB))
	}
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(d.JWTSecret))

		r.Get("/api/auth/me", MeHandler(d.Auth))
		r.Get("/api/addresses", ListAddressesHandler(d.Orders))
		r.Post("/orders", CreateOrderHandler(d.Orders))
		r.Get("/orders", ListOrdersHandler(d.Orders))
		r.Post("/orders/verify", VerifyPaymentHandler(d.Payments))
		r.Get("/orders/{id}", GetOrderHandler(d.Orders))
		r.Patch("/orders/{id}/cancel", CancelOrderHandler(d.Orders))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			r.Patch("/orders/{id}/status", UpdateStatusHandler(d.Orders))
			r.Get("/admin/orders", AdminListOrdersHandler(d.Orders))
		})
	})

	return r
}
