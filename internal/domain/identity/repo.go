package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidInput wraps request-shaped failures so handlers can
	// separate caller mistakes (400) from store faults (500).
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
