package router

import (
	"strconv"
	"time"

	"github.com/anonto42/nano-social/backend/internal/events"
	"github.com/anonto42/nano-social/backend/internal/handlers"
	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/anonto42/nano-social/backend/internal/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Services are the application services the HTTP layer exposes
type Services struct {
	Users         *services.UserService
	Posts         *services.PostService
	Reactions     *services.ReactionService
	Follows       *services.FollowService
	Notifications *services.NotificationService
	Comments      *services.CommentService
}

// Options configures authentication and uploads
type Options struct {
	JWTSecret     string
	JWTTTL        time.Duration
	MaxUploadSize int64
	// Verifier checks Firebase ID tokens for the session exchange. Without one the
	// exchange route is not mounted.
	Verifier   middleware.IdentityVerifier
	Subscriber events.Subscriber
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, svc Services, opts Options, log *zap.Logger) {
	e.Validator = validators.New()
	e.HTTPErrorHandler = handlers.ErrorHandler(log)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Session exchange (requires a Firebase ID token) ---
	if opts.Verifier != nil {
		authGroup := e.Group("/api/v1/auth")
		authGroup.Use(middleware.FirebaseAuthMiddleware(opts.Verifier))
		handlers.NewAuthHandler(svc.Users, opts.JWTSecret, opts.JWTTTL, log).RegisterAuthRoutes(authGroup)
		log.Info("Auth routes configured")
	} else {
		log.Warn("No Firebase verifier, session exchange disabled")
	}

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(opts.JWTSecret))

	// Posts carry images; everything else is small JSON
	api.Use(eMiddleware.BodyLimit(bodyLimit(opts.MaxUploadSize)))

	handlers.NewUserHandler(svc.Users).RegisterProfileRoutes(api)
	handlers.NewPostHandler(svc.Posts, opts.MaxUploadSize).RegisterPostRoutes(api)
	handlers.NewFeedHandler(svc.Posts).RegisterFeedRoutes(api)
	handlers.NewReactionHandler(svc.Reactions).RegisterReactionRoutes(api)
	handlers.NewCommentHandler(svc.Comments).RegisterCommentRoutes(api)
	handlers.NewFollowHandler(svc.Follows).RegisterFollowRoutes(api)
	handlers.NewNotificationHandler(svc.Notifications, opts.Subscriber, log).RegisterNotificationRoutes(api)

	log.Info("All routes configured", zap.Int("routes", len(e.Routes())))
}

// bodyLimit formats the upload limit for BodyLimit, leaving headroom for the multipart
// envelope and text fields.
func bodyLimit(maxUpload int64) string {
	const overhead = 1 << 20
	return strconv.FormatInt((maxUpload+overhead+1023)/1024, 10) + "K"
}
