package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxRequestIDLen bounds caller-supplied identifiers so log lines and
// response headers stay readable.
const maxRequestIDLen = 64

// RequestID tags every request with an identifier: the caller's X-Request-ID
// when present (truncated to maxRequestIDLen), a fresh uuid otherwise. The
// id is echoed back in the response and stored for the logging middleware.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if len(rid) > maxRequestIDLen {
				rid = rid[:maxRequestIDLen]
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			c.Set(ContextKeyRequestID, rid)
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			return next(c)
		}
	}
}

// RequestIDFromContext extracts the request identifier if available.
func RequestIDFromContext(c echo.Context) string {
	if val, ok := c.Get(ContextKeyRequestID).(string); ok {
		return val
	}
	return ""
}
