package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apperrors "github.com/hrygo/prefcache/internal/errors"
	"github.com/hrygo/prefcache/server/internal/observability"
	"github.com/hrygo/prefcache/store/cache"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodePermissionDenied:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto an HTTP status and writes an ErrorResponse.
// Internal causes are logged but never returned to the client.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, cache.ErrCacheNotFound) {
		err = apperrors.NotFound(err.Error())
	}

	code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
	status := statusFromCode(code)

	message := "internal error"
	var prefErr *apperrors.PrefError
	if errors.As(err, &prefErr) && status != http.StatusInternalServerError {
		message = prefErr.Message
	}

	if status == http.StatusInternalServerError {
		if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
			reqCtx.Error("handler failed", err, slog.String(observability.LogFieldErrorCode, string(code)))
		} else {
			slog.Error("handler failed", "error", err, observability.LogFieldErrorCode, code)
		}
	}

	return c.JSON(status, ErrorResponse{Code: string(code), Message: message})
}
