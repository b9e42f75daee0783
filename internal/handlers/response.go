package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// bind decodes and validates the request body into req
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.Validation("invalid request payload")
	}
	return c.Validate(req)
}

// queryLimit reads ?limit=, zero when absent or malformed so the service default applies
func queryLimit(c echo.Context) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// ErrorHandler renders app errors and echo errors in one JSON shape. Server-side failures are
// logged; client errors are not.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := apperror.StatusOf(err)
		detail := ErrorDetail{Code: string(apperror.KindOf(err)), Message: apperror.MessageOf(err)}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			detail.Code = codeForStatus(he.Code)
			if msg, ok := he.Message.(string); ok {
				detail.Message = msg
			} else {
				detail.Message = http.StatusText(he.Code)
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, ErrorResponse{Success: false, Error: detail})
		}
		if writeErr != nil {
			log.Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return string(apperror.KindNotFound)
	case http.StatusUnauthorized:
		return string(apperror.KindUnauthenticated)
	case http.StatusForbidden:
		return string(apperror.KindForbidden)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return string(apperror.KindValidation)
	}
	return string(apperror.KindInternal)
}
