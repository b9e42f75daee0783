package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, key string, claims *models.JwtCustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims() *models.JwtCustomClaims {
	return &models.JwtCustomClaims{
		UID:   "A",
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func run(mw echo.MiddlewareFunc, req *http.Request) (echo.Context, error) {
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	err := mw(func(c echo.Context) error { return nil })(c)
	return c, err
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, secret, validClaims()))

	c, err := run(JWTAuthMiddleware(secret), req)
	require.NoError(t, err)
	assert.Equal(t, "A", UserID(c))
	assert.Equal(t, "a@x.com", UserEmail(c))
}

func TestJWTAuthAcceptsQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?access_token="+signed(t, secret, validClaims()), nil)

	c, err := run(JWTAuthMiddleware(secret), req)
	require.NoError(t, err)
	assert.Equal(t, "A", UserID(c))
}

func TestJWTAuthRejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong key", "Bearer " + signed(t, "other-secret", validClaims())},
		{"expired", "Bearer " + signed(t, secret, expired)},
		{"garbage", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			_, err := run(JWTAuthMiddleware(secret), req)
			assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
		})
	}
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebase.Identity, error) {
	if idToken != "good-id-token" {
		return nil, errors.New("token has expired")
	}
	return &firebase.Identity{UID: "A", Email: "a@x.com", Name: "Ana"}, nil
}

func TestFirebaseAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer good-id-token")
	c, err := run(FirebaseAuthMiddleware(fakeVerifier{}), req)
	require.NoError(t, err)
	assert.Equal(t, "A", UserID(c))
	require.NotNil(t, Identity(c))
	assert.Equal(t, "Ana", Identity(c).Name)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	_, err = run(FirebaseAuthMiddleware(fakeVerifier{}), req)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
