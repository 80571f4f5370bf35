package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/gateway"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(ctx, cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(ctx, db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}
	store := database.NewStore(db)

	m := metrics.New()

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	var gw gateway.Client
	switch cfg.GatewayMode {
	case config.GatewayHTTP:
		gw = gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout, m)
	default:
		slog.Warn("using sandbox payment gateway")
		gw = gateway.Sandbox{}
	}

	// Services
	authSvc := service.NewAuthService(store)
	deliverySvc := service.NewDeliveryService(store)
	orderSvc := service.NewOrderService(store, deliverySvc, gw, service.OrderOptions{
		Currency:       cfg.GatewayCurrency,
		GatewayTimeout: cfg.GatewayTimeout,
		Publisher:      publisher,
		Recorder:       m,
	})
	paymentSvc := service.NewPaymentService(store, gateway.NewSigner(cfg.GatewaySigningSecret), publisher, m)

	if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("failed to seed admin", "error", err)
		os.Exit(1)
	}

	r := handler.NewRouter(handler.Deps{
		Auth:      authSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Delivery:  deliverySvc,
		DB:        store,
		Metrics:   m,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTTL,
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.GatewayTimeout + 10*time.Second,
	}

	slog.Info("starting server", "addr", cfg.RunAddress, "gateway", cfg.GatewayMode)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
