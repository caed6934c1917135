package entity

import (
	"time"

	"github.com/google/uuid"
)

// Operator is an authenticated API user. There is no self-service signup;
// operators are seeded at startup or inserted manually.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
