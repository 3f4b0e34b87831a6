package repository

import (
	"context"
	"errors"

	"recipe-manager/internal/domain"
)

// ErrNoChange may be returned by an Update callback to skip the write while
// still returning the state loaded inside the transaction. Used for no-op
// mutations that must keep the stored row byte-identical.
var ErrNoChange = errors.New("no change")

// RecipeRepository exposes persistence operations for Recipe aggregates.
//
// Update and Delete run their callback inside a single transaction, so the
// state the callback inspects is the state the write applies to. The callback
// returning an error aborts the transaction and is propagated unchanged;
// services use this to enforce ownership atomically with the mutation.
type RecipeRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, recipe *domain.Recipe) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Recipe, error)
	// List returns one page of recipes ordered by id. Rows whose persisted
	// ingredient blob fails to decode are skipped and logged rather than
	// failing the page; Get of the same row surfaces the decode error.
	List(ctx context.Context, offset, limit int) ([]domain.Recipe, error)
	Update(ctx context.Context, id int64, apply func(*domain.Recipe) error) (*domain.Recipe, error)
	Delete(ctx context.Context, id int64, authorize func(*domain.Recipe) error) error
	// SearchByOwner matches keyword case-insensitively as a substring of the
	// title or of the raw encoded ingredients blob, restricted to recipes
	// owned by ownerID.
	SearchByOwner(ctx context.Context, ownerID int64, keyword string) ([]domain.Recipe, error)
}
