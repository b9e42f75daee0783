package middleware

import (
	"context"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

// ContextIdentity holds the *firebase.Identity of a verified Firebase ID token
const ContextIdentity = "firebaseIdentity"

// IdentityVerifier verifies Firebase ID tokens
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebase.Identity, error)
}

// FirebaseAuthMiddleware creates an Echo middleware to verify Firebase ID tokens
func FirebaseAuthMiddleware(verifier IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			identity, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return apperror.Unauthenticated("invalid or expired ID token")
			}

			c.Set(ContextIdentity, identity)
			c.Set(ContextUserID, identity.UID)
			c.Set(ContextEmail, identity.Email)
			return next(c)
		}
	}
}

// Identity returns the verified Firebase identity of the request, nil if there is none
func Identity(c echo.Context) *firebase.Identity {
	id, _ := c.Get(ContextIdentity).(*firebase.Identity)
	return id
}
