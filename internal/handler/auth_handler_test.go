package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/orgscout/internal/auth"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/repository"
	"github.com/octobees/orgscout/internal/service"
)

type stubOperatorsRepo struct {
	findByEmail func(ctx context.Context, email string) (*entity.Operator, error)
}

func (s *stubOperatorsRepo) FindByEmail(ctx context.Context, email string) (*entity.Operator, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubOperatorsRepo) Create(ctx context.Context, email, passwordHash, role string) (*entity.Operator, error) {
	return nil, errors.New("not implemented")
}

func newAuthHandler(t *testing.T, repo repository.OperatorsRepository) *AuthHandler {
	t.Helper()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewAuthHandler(service.NewAuthService(repo, jwtManager))
}

func postJSON(t *testing.T, e *echo.Echo, path string, payload any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login(t *testing.T) {
	e := echo.New()

	t.Run("invalid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := newAuthHandler(t, &stubOperatorsRepo{})
		if err := handler.Login(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		c, rec := postJSON(t, e, "/auth/login", map[string]string{"email": " ", "password": ""})
		handler := newAuthHandler(t, &stubOperatorsRepo{})
		_ = handler.Login(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown operator", func(t *testing.T) {
		c, rec := postJSON(t, e, "/auth/login", map[string]string{"email": "nobody@example.com", "password": "pw"})
		handler := newAuthHandler(t, &stubOperatorsRepo{
			findByEmail: func(ctx context.Context, email string) (*entity.Operator, error) {
				return nil, repository.ErrOperatorNotFound
			},
		})
		_ = handler.Login(c)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		op := &entity.Operator{ID: uuid.New(), Email: "ops@example.com", PasswordHash: string(hash), Role: "operator"}

		c, rec := postJSON(t, e, "/auth/login", map[string]string{"email": "ops@example.com", "password": "secret"})
		handler := newAuthHandler(t, &stubOperatorsRepo{
			findByEmail: func(ctx context.Context, email string) (*entity.Operator, error) {
				return op, nil
			},
		})
		if err := handler.Login(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp APIResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, ok := resp.Data.(map[string]any)
		if !ok || data["access_token"] == "" {
			t.Fatalf("expected access token, got %+v", resp.Data)
		}
	})
}
