package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type itemRequest struct {
	ID    models.ObjectID `param:"id" validate:"required,objectid"`
	Limit int             `query:"limit" validate:"gte=0,lte=100"`
}

type createItemRequest struct {
	ID   models.ObjectID `param:"id" validate:"required,objectid"`
	Name string          `json:"name" validate:"required"`
}

func newWrapEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logger.Nop())
	e.GET("/items/:id", WrapHandler(func(c echo.Context, req itemRequest) (map[string]any, error) {
		return map[string]any{"id": req.ID, "limit": req.Limit}, nil
	}))
	e.POST("/items/:id", WrapHandler(func(c echo.Context, req createItemRequest) (*Response, error) {
		return Created(map[string]any{"name": req.Name}), nil
	}))
	e.DELETE("/items/:id", WrapHandler(func(c echo.Context, req itemRequest) error {
		return nil
	}))
	return e
}

func TestWrapHandler(t *testing.T) {
	e := newWrapEcho()
	const id = "507f1f77bcf86cd799439011"

	t.Run("binds param and query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id+"?limit=5", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":{"id":"`+id+`","limit":5}}`, rec.Body.String())
	})

	t.Run("rejects invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/nope", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects out of range query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id+"?limit=500", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("created envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items/"+id, strings.NewReader(`{"name":"general"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":{"name":"general"}}`, rec.Body.String())
	})

	t.Run("missing body field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items/"+id, strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no content", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestWrapHandlerRejectsBadSignatures(t *testing.T) {
	_, err := wrapHandler("not a func")
	assert.Error(t, err)
	_, err = wrapHandler(func(c echo.Context) error { return nil })
	assert.Error(t, err)
	_, err = wrapHandler(func(c echo.Context, id string) error { return nil })
	assert.Error(t, err)
	_, err = wrapHandler(func(c echo.Context, req itemRequest) (int, int) { return 0, 0 })
	assert.Error(t, err)
}
