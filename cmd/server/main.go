package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/metrics"
	"github.com/anonto42/nano-social/backend/internal/router"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/internal/triggers"
	"github.com/anonto42/nano-social/backend/pkg/cloudinary"
	"github.com/anonto42/nano-social/backend/pkg/config"
	"github.com/anonto42/nano-social/backend/pkg/fcm"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFile, cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Firebase. Only the memory backend may run without it.
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
	if err != nil {
		if cfg.StoreBackend != config.BackendMemory {
			log.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
		log.Warn("Firebase unavailable, running without auth exchange and push", zap.Error(err))
	}

	store, closeStore, err := config.OpenStore(ctx, cfg, firebaseApp, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	m := metrics.Initialize()

	bus, inProcess, err := openBus(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect event bus", zap.Error(err))
	}
	defer bus.Close()

	var media services.MediaStore
	if cfg.CloudinaryCloudName != "" {
		media = cloudinary.NewClient(cloudinary.Config{
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
		}, log)
	} else {
		log.Warn("CLOUDINARY_CLOUD_NAME not set, image uploads are disabled")
	}

	users := services.NewUserService(store.Users, log)
	notifications := services.NewNotificationService(store, bus, m, log)
	svc := router.Services{
		Users:         users,
		Posts:         services.NewPostService(store, notifications, media, bus, m, log),
		Reactions:     services.NewReactionService(store.Posts, bus, m, log),
		Follows:       services.NewFollowService(store, notifications, m, log),
		Notifications: notifications,
		Comments:      services.NewCommentService(store, notifications, log),
	}

	// Without a broker the triggers run inside this process
	if inProcess {
		deps := triggers.Deps{
			Posts:         store.Posts,
			Notifications: notifications,
			Emails:        users,
			Metrics:       m,
			Log:           log,
		}
		if firebaseApp != nil {
			deps.Emails = firebaseApp
			deps.Sender = fcm.NewClient(firebaseApp.MessagingClient, cfg.AppURL, log)
		}
		unregister, err := triggers.Register(bus, m, log, triggers.Standard(deps)...)
		if err != nil {
			log.Fatal("Failed to register triggers", zap.Error(err))
		}
		defer unregister()
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	config.SetupMiddleware(e, log, m)

	opts := router.Options{
		JWTSecret:     cfg.JWTSecret,
		JWTTTL:        cfg.JWTTTL,
		MaxUploadSize: cfg.MaxUploadSize,
		Subscriber:    bus,
	}
	if firebaseApp != nil {
		opts.Verifier = firebaseApp
	}
	router.SetupRoutes(e, svc, opts, log)

	metricsServer := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metrics.Handler()}
	go func() {
		log.Info("Metrics server starting", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// Start server
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// openBus connects to NATS when NATS_URL is set. Otherwise it returns an in-process bus and
// reports that triggers must run here.
func openBus(cfg *config.Config, log *zap.Logger) (events.Bus, bool, error) {
	if cfg.NatsURL == "" {
		log.Info("NATS_URL not set, using in-process event bus")
		return events.NewLocalBus(cfg.TriggerTimeout, log), true, nil
	}
	bus, err := events.ConnectNats(cfg.NatsURL, cfg.TriggerTimeout, log)
	if err != nil {
		return nil, false, err
	}
	return bus, false, nil
}
