package account

import (
	"context"
	"errors"

	domain "motoclub/internal/domain/account"
)

// Store errors.
var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store persists User state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Save(ctx context.Context, value domain.User) error
	UpdateRole(ctx context.Context, id, role string) (domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
	CountMatching(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Role   string
}
