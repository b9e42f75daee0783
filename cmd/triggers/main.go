package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/internal/triggers"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/fcm"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"go.uber.org/zap"
)

// The trigger worker consumes post and notification events from NATS. Several workers can run
// side by side; queue groups give each event to one of them.
func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFile, cfg.IsProduction()).With(zap.String("process", "triggers"))
	defer func() { _ = log.Sync() }()

	if cfg.NatsURL == "" {
		log.Fatal("NATS_URL is required; without a broker the server runs triggers in-process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
	if err != nil {
		log.Fatal("Failed to initialize Firebase", zap.Error(err))
	}

	store, closeStore, err := config.OpenStore(ctx, cfg, firebaseApp, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	bus, err := events.ConnectNats(cfg.NatsURL, cfg.TriggerTimeout, log)
	if err != nil {
		log.Fatal("Failed to connect event bus", zap.Error(err))
	}
	defer bus.Close()

	m := metrics.Initialize()
	notifications := services.NewNotificationService(store, bus, m, log)

	unregister, err := triggers.Register(bus, m, log, triggers.Standard(triggers.Deps{
		Posts:         store.Posts,
		Notifications: notifications,
		Emails:        firebaseApp,
		Sender:        fcm.NewClient(firebaseApp.MessagingClient, cfg.AppURL, log),
		Metrics:       m,
		Log:           log,
	})...)
	if err != nil {
		log.Fatal("Failed to register triggers", zap.Error(err))
	}
	defer unregister()

	metricsServer := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	log.Info("Trigger worker running")
	<-ctx.Done()

	log.Info("Trigger worker shutting down")
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		log.Error("Metrics server forced to shutdown", zap.Error(err))
	}
}
