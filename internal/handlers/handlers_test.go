package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func renderError(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(zap.NewNop())(err, c)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"app error", apperror.NotFound("post"), http.StatusNotFound, "NOT_FOUND", "post not found"},
		{"store failure hides cause", apperror.Store(errors.New("dial tcp: refused"), "get post"), http.StatusServiceUnavailable, "STORE_FAILURE", "storage is temporarily unavailable"},
		{"echo error", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"), http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request Entity Too Large"},
		{"echo route miss", echo.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Not Found"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := renderError(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestGroupByPeriod(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	at := func(d time.Duration) models.NotificationMessage {
		return models.NotificationMessage{ID: d.String(), CreatedAt: now.Add(-d)}
	}

	groups := groupByPeriod([]models.NotificationMessage{
		at(time.Hour),
		at(20 * time.Hour),
		at(3 * 24 * time.Hour),
		at(30 * 24 * time.Hour),
	}, now)

	require.Len(t, groups.Today, 1)
	require.Len(t, groups.Yesterday, 1)
	require.Len(t, groups.ThisWeek, 1)
	require.Len(t, groups.Older, 1)
	assert.Equal(t, "1h0m0s", groups.Today[0].ID)
	assert.Equal(t, "20h0m0s", groups.Yesterday[0].ID)

	empty := groupByPeriod(nil, now)
	assert.NotNil(t, empty.Today)
}

func TestReadImage(t *testing.T) {
	h := NewPostHandler(nil, 8)
	e := echo.New()

	multipartRequest := func(payload []byte) echo.Context {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if payload != nil {
			part, err := w.CreateFormFile(imageField, "a.png")
			require.NoError(t, err)
			_, err = part.Write(payload)
			require.NoError(t, err)
		}
		require.NoError(t, w.WriteField("title", "t"))
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/posts", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		return e.NewContext(req, httptest.NewRecorder())
	}

	img, err := h.readImage(multipartRequest([]byte("12345678")))
	require.NoError(t, err)
	assert.Equal(t, "a.png", img.Filename)
	assert.Len(t, img.Data, 8)

	_, err = h.readImage(multipartRequest([]byte("123456789")))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	img, err = h.readImage(multipartRequest(nil))
	require.NoError(t, err)
	assert.Nil(t, img)

	jsonReq := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewBufferString(`{"title":"t"}`))
	jsonReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	img, err = h.readImage(e.NewContext(jsonReq, httptest.NewRecorder()))
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestQueryLimit(t *testing.T) {
	e := echo.New()
	for query, want := range map[string]int{"": 0, "?limit=5": 5, "?limit=abc": 0, "?limit=-3": 0} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+query, nil), httptest.NewRecorder())
		assert.Equal(t, want, queryLimit(c), query)
	}
}
