package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	authpkg "github.com/octobees/orgscout/internal/auth"
	"github.com/octobees/orgscout/internal/config"
)

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestJWTMissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	manager := authpkg.NewJWTManager("test-secret", time.Hour)
	if err := JWT(manager)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTValidToken(t *testing.T) {
	e := echo.New()
	manager := authpkg.NewJWTManager("test-secret", time.Hour)
	token, err := manager.GenerateToken("op-1", "ops@example.com", "operator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := JWT(manager)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, _ := c.Get(ContextKeyOperatorEmail).(string); got != "ops@example.com" {
		t.Fatalf("operator email not stored: %q", got)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyOperatorRole, "operator")

		if err := RequireRole("admin")(okHandler)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyOperatorRole, "admin")

		if err := RequireRole("admin")(okHandler)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := RequestIDFromContext(c); got != "caller-id" {
		t.Fatalf("expected caller-id, got %q", got)
	}
}

func TestRequestIDTruncatesLongCallerID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := RequestIDFromContext(c); len(got) != maxRequestIDLen {
		t.Fatalf("request id not truncated: %d chars", len(got))
	}
}

func TestRunRateLimiter(t *testing.T) {
	e := echo.New()
	mw := RunRateLimiter(config.RateLimitConfig{Requests: 1, Interval: time.Hour})

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath(path)
		if err := mw(okHandler)(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec.Code
	}

	if code := call("/runs"); code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", code)
	}
	if code := call("/runs"); code != http.StatusTooManyRequests {
		t.Fatalf("second call: expected 429, got %d", code)
	}
	// Other paths pass through untouched.
	if code := call("/organizations"); code != http.StatusOK {
		t.Fatalf("unguarded path: expected 200, got %d", code)
	}
}
