package users

import (
	"context"

	"github.com/google/uuid"
)

// Repo manages persistence of user records. Lookups exclude soft-deleted
// users unless stated otherwise; absent users surface as errors.ErrNotFound.
type Repo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDIncludeDeleted(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
