package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorHandler renders every error as a ResponseError.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := toHTTPError(err)

		// detect canceled request error
		if errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled {
			resp.Status = 499
		}

		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if resp.Status >= http.StatusInternalServerError {
			log.Errorw("request failed", "error", err, "uri", c.Request().RequestURI)
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}

// isNotFoundHandler reports whether h is echo's fallback for unmatched routes.
func isNotFoundHandler(h echo.HandlerFunc) bool {
	return h != nil && reflect.ValueOf(h).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

func toHTTPError(err error) *ResponseError {
	var re *ResponseError
	if errors.As(err, &re) {
		return re
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &ResponseError{
			Status:       he.Code,
			Err:          err,
			ErrorMessage: fmt.Sprint(he.Message),
		}
	}

	resp := &ResponseError{
		Status:       http.StatusInternalServerError,
		Err:          err,
		ErrorMessage: http.StatusText(http.StatusInternalServerError),
	}
	st, ok := status.FromError(err)
	if !ok {
		return resp
	}
	code := st.Code()
	if httpStatus, ok := statusByCode[code]; ok {
		resp.Status = httpStatus
		resp.ErrorCode = code.String()
		resp.ErrorMessage = st.Message()
	}
	return resp
}

var statusByCode = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.FailedPrecondition: http.StatusPreconditionFailed,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
}
