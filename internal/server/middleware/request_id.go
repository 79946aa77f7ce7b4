package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
)

const (
	XRequestID     = "x-request-id"
	XCorrelationID = "x-correlation-id"

	maxRequestIDLength = 128
)

type requestIDKey struct{}

// RequestID reuses a well formed incoming request id, or the correlation
// id, and generates one otherwise. The id is echoed in the response and
// attached to every log line of the request.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := incomingRequestID(c.Request().Header)
			if id == "" {
				id = uuid.NewString()
			}

			ctx := context.WithValue(c.Request().Context(), requestIDKey{}, id)
			ctx = log.WithFields(ctx, "request_id", id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(XRequestID, id)
			c.Response().Header().Set(XRequestID, id)
			return next(c)
		}
	}
}

func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(XRequestID).(string); ok {
		return id
	}
	return RequestIDFromContext(c.Request().Context())
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func incomingRequestID(h http.Header) string {
	for _, key := range []string{XRequestID, XCorrelationID} {
		if id := h.Get(key); validRequestID(id) {
			return id
		}
	}
	return ""
}

// validRequestID accepts short printable ASCII ids, so a client cannot
// smuggle control characters into the logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
