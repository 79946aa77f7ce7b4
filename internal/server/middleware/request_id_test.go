package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequestID(t *testing.T, header map[string]string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	var seen string
	err := RequestID()(func(c echo.Context) error {
		seen = GetRequestID(c)
		ctx := c.Request().Context()
		assert.Equal(t, seen, RequestIDFromContext(ctx))
		assert.Equal(t, []any{"request_id", seen}, log.Fields(ctx))
		return c.NoContent(http.StatusNoContent)
	})(c)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(XRequestID))
	return seen, rec
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   map[string]string
		want     string
		generate bool
	}{
		{name: "keeps incoming id", header: map[string]string{XRequestID: "req-42"}, want: "req-42"},
		{name: "falls back to correlation id", header: map[string]string{XCorrelationID: "corr-7"}, want: "corr-7"},
		{name: "request id wins over correlation id", header: map[string]string{XRequestID: "a", XCorrelationID: "b"}, want: "a"},
		{name: "generates when absent", generate: true},
		{name: "rejects control characters", header: map[string]string{XRequestID: "bad\tid"}, generate: true},
		{name: "rejects oversized ids", header: map[string]string{XRequestID: strings.Repeat("x", 200)}, generate: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := runRequestID(t, tt.header)
			if tt.generate {
				assert.Len(t, got, 36)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
