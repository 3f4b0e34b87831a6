package repository

import (
	"context"

	"recipe-manager/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// ExistsByNameOrEmail reports whether any user already holds the given
	// username or email, compared case-insensitively.
	ExistsByNameOrEmail(ctx context.Context, username, email string) (bool, error)
}
