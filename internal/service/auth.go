package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/orgscout/internal/auth"
	"github.com/octobees/orgscout/internal/repository"
)

// ErrInvalidCredentials is returned for unknown operators and bad passwords
// alike, so a caller cannot probe which emails exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService coordinates credential validation and token issuance.
type AuthService struct {
	operators repository.OperatorsRepository
	jwt       *auth.JWTManager
}

// NewAuthService constructs a new AuthService.
func NewAuthService(operators repository.OperatorsRepository, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{operators: operators, jwt: jwtManager}
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	op, err := s.operators.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(op.ID.String(), op.Email, op.Role)
	if err != nil {
		return "", err
	}

	return token, nil
}

// EnsureAdmin seeds the admin operator on first boot. It is a no-op when the
// operator already exists or no admin password is configured.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.operators.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrOperatorNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := s.operators.Create(ctx, email, string(hash), "admin"); err != nil {
		return fmt.Errorf("seed admin operator: %w", err)
	}

	log.Printf("seeded admin operator: email=%s", email)
	return nil
}
