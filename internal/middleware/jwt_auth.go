package middleware

import (
	"errors"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// Context keys set by the auth middlewares
const (
	ContextUserID = "uid"
	ContextEmail  = "email"
	ContextClaims = "user"
)

// JWTAuthMiddleware checks for a valid session JWT and extracts user claims. The token is read
// from the Authorization header, or from the access_token query parameter for clients such as
// EventSource that cannot set headers.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				tokenString = c.QueryParam("access_token")
				if tokenString == "" {
					return err
				}
			}

			claims, err := ParseToken(secret, tokenString)
			if err != nil {
				return err
			}

			// Store user claims in context
			c.Set(ContextClaims, claims)
			c.Set(ContextUserID, claims.UID)
			c.Set(ContextEmail, claims.Email)
			return next(c)
		}
	}
}

// ParseToken validates an HS256 session token and returns its claims
func ParseToken(secret, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, apperror.Unauthenticated("invalid token signature")
		}
		return nil, apperror.Unauthenticated("invalid or expired token")
	}
	if !token.Valid || claims.UID == "" {
		return nil, apperror.Unauthenticated("invalid token")
	}
	return claims, nil
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", apperror.Unauthenticated("missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", apperror.Unauthenticated("Authorization header must be in Bearer format")
	}
	return parts[1], nil
}

// UserID returns the authenticated user's ID, empty when the request is anonymous
func UserID(c echo.Context) string {
	uid, _ := c.Get(ContextUserID).(string)
	return uid
}

// UserEmail returns the authenticated user's email
func UserEmail(c echo.Context) string {
	email, _ := c.Get(ContextEmail).(string)
	return email
}
