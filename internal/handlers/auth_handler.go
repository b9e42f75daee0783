package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-social/backend/internal/middleware"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler exchanges Firebase ID tokens for local session JWTs
type AuthHandler struct {
	users     *services.UserService
	jwtSecret string
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService, jwtSecret string, ttl time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
	}
}

// RegisterAuthRoutes registers authentication routes. g must be guarded by
// middleware.FirebaseAuthMiddleware.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/session", h.CreateSession)
}

// SessionResponse is returned by a successful session exchange
type SessionResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	User      *models.UserProfile `json:"user"`
}

// CreateSession syncs the verified Firebase identity into the user store and issues a local JWT
func (h *AuthHandler) CreateSession(c echo.Context) error {
	identity := middleware.Identity(c)
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing Firebase identity")
	}

	var req models.SessionRequest
	if c.Request().ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = identity.Name
	}

	user, err := h.users.SyncIdentity(c.Request().Context(), identity.UID, identity.Email, displayName)
	if err != nil {
		return err
	}

	token, expiresAt, err := h.generateJWT(user)
	if err != nil {
		h.log.Error("Failed to sign session token", zap.String("uid", user.UID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate token")
	}

	return success(c, http.StatusOK, SessionResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// generateJWT signs an HS256 session token for user
func (h *AuthHandler) generateJWT(user *models.UserProfile) (string, time.Time, error) {
	now := h.now()
	expiresAt := now.Add(h.ttl)
	claims := &models.JwtCustomClaims{
		UID:   user.UID,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return t, expiresAt, nil
}
