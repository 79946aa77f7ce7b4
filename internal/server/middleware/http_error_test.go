package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: models.ErrNotFound, status: http.StatusNotFound, code: "NotFound"},
		{name: "wrapped forbidden", err: fmt.Errorf("open channel: %w", models.ErrForbidden), status: http.StatusForbidden, code: "PermissionDenied"},
		{name: "invalid", err: models.ErrInvalidArgument, status: http.StatusBadRequest, code: "InvalidArgument"},
		{name: "conflict", err: models.ErrConflict, status: http.StatusConflict, code: "AlreadyExists"},
		{name: "echo error", err: echo.NewHTTPError(http.StatusUnauthorized, "nope"), status: http.StatusUnauthorized},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError},
		{name: "response error", err: &ResponseError{Status: http.StatusTeapot}, status: http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := toHTTPError(tt.err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.code, resp.ErrorCode)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(logger.Nop())
	e.GET("/missing", func(c echo.Context) error {
		return fmt.Errorf("get channel: %w", models.ErrNotFound)
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("database exploded")
	})

	t.Run("status error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
		assert.Contains(t, rec.Body.String(), `"error_code":"NotFound"`)
	})

	t.Run("internal error hides details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "exploded")
	})

	t.Run("no route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "no route matched")
	})
}
