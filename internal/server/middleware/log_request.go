package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultMaxLoggedBody = 2048

type LogRequestConfig struct {
	Logger Logger
	// Skip leaves a request out of the access log.
	Skip func(c echo.Context) bool
	// MaxBody caps the logged request body in bytes. Negative disables
	// body logging.
	MaxBody int
}

// LogRequest writes one access log line per request: info below 400, warn
// for client errors, error for server errors. JSON bodies of writes are
// logged truncated; responses never are, live windows are too large.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Skip == nil {
		config.Skip = func(echo.Context) bool { return false }
	}
	if config.MaxBody == 0 {
		config.MaxBody = defaultMaxLoggedBody
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skip(c) {
				return next(c)
			}
			start := time.Now()
			req := c.Request()
			body := captureBody(req, config.MaxBody)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			args := []any{
				"status", res.Status,
				"method", req.Method,
				"route", c.Path(),
				"uri", redactedURI(req.URL),
				"latency_ms", time.Since(start).Milliseconds(),
				"bytes_out", res.Size,
				"real_ip", c.RealIP(),
				"request_id", GetRequestID(c),
			}
			if userID := GetUserID(c); userID != "" {
				args = append(args, "user_id", userID)
			}
			if body != "" {
				args = append(args, "request_body", body)
			}

			switch {
			case res.Status >= http.StatusInternalServerError:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("request", args...)
			case res.Status >= http.StatusBadRequest:
				config.Logger.Warnw("request", args...)
			default:
				config.Logger.Infow("request", args...)
			}
			return err
		}
	}
}

// captureBody reads a JSON write body and puts it back for the handler.
func captureBody(req *http.Request, limit int) string {
	if limit < 0 || req.Body == nil || isUpgrade(req) {
		return ""
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ""
	}
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return ""
	}
	raw, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	if len(raw) > limit {
		return string(raw[:limit]) + "…"
	}
	return string(raw)
}

func isUpgrade(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get(echo.HeaderUpgrade), "websocket")
}

// redactedURI drops the websocket token from the logged query.
func redactedURI(u *url.URL) string {
	q := u.Query()
	if !q.Has(tokenQueryParam) {
		return u.RequestURI()
	}
	q.Set(tokenQueryParam, "redacted")
	out := *u
	out.RawQuery = q.Encode()
	return out.RequestURI()
}
