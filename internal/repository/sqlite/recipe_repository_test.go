package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/domain"
	"recipe-manager/internal/errs"
	"recipe-manager/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepos(t *testing.T) (repository.UserRepository, repository.RecipeRepository, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db := openTestDB(t)

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	users := NewUserRepository(db)
	recipes := NewRecipeRepository(db, logger)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, recipes.Init(ctx))
	return users, recipes, db
}

func createTestUser(t *testing.T, users repository.UserRepository, name string) int64 {
	t.Helper()
	id, err := users.Create(context.Background(), &domain.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return id
}

func TestRecipeRepository_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	users, recipes, _ := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	recipe := &domain.Recipe{
		Title:        "Bread",
		Description:  "plain loaf",
		Instructions: "bake it",
		Ingredients: []domain.Ingredient{
			{Name: "flour", Quantity: "500g"},
			{Name: "water"},
		},
		CreatedBy: ownerID,
	}
	id, err := recipes.Create(ctx, recipe)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Title)
	assert.Equal(t, ownerID, got.CreatedBy)
	// write-time normalization: stored blob carries quantity for every entry
	assert.Equal(t, []domain.Ingredient{
		{Name: "flour", Quantity: "500g"},
		{Name: "water", Quantity: ""},
	}, got.Ingredients)
}

func TestRecipeRepository_Get_NotFound(t *testing.T) {
	_, recipes, _ := newTestRepos(t)
	_, err := recipes.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRecipeRepository_LegacyRowQuantityBackfill(t *testing.T) {
	ctx := context.Background()
	users, recipes, db := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	// row written by an older system without the quantity key
	res, err := db.ExecContext(ctx, `
INSERT INTO recipes (title, description, ingredients, instructions, created_by, created_at, updated_at)
VALUES ('Old', '', '[{"name":"flour"}]', '', ?, ?, ?)`,
		ownerID, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	got, err := recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []domain.Ingredient{{Name: "flour", Quantity: ""}}, got.Ingredients)

	// reads do not write back: the stored blob stays untouched
	var blob string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT ingredients FROM recipes WHERE id = ?`, id).Scan(&blob))
	assert.Equal(t, `[{"name":"flour"}]`, blob)
}

func insertMalformedRecipe(t *testing.T, db *sql.DB, ownerID int64) int64 {
	t.Helper()
	res, err := db.ExecContext(context.Background(), `
INSERT INTO recipes (title, description, ingredients, instructions, created_by, created_at, updated_at)
VALUES ('Broken', '', 'not json', '', ?, ?, ?)`,
		ownerID, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestRecipeRepository_List_SkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	users, recipes, db := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	_, err := recipes.Create(ctx, &domain.Recipe{Title: "Good", CreatedBy: ownerID})
	require.NoError(t, err)
	badID := insertMalformedRecipe(t, db, ownerID)

	listed, err := recipes.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Good", listed[0].Title)

	// the same row fails loudly when addressed directly
	_, err = recipes.Get(ctx, badID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrNotFound)
}

func TestRecipeRepository_List_Pagination(t *testing.T) {
	ctx := context.Background()
	users, recipes, _ := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	for _, title := range []string{"a", "b", "c"} {
		_, err := recipes.Create(ctx, &domain.Recipe{Title: title, CreatedBy: ownerID})
		require.NoError(t, err)
	}

	page, err := recipes.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Title)
	assert.Equal(t, "c", page[1].Title)

	empty, err := recipes.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecipeRepository_Update_Transactional(t *testing.T) {
	ctx := context.Background()
	users, recipes, _ := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	recipe := &domain.Recipe{Title: "Bread", CreatedBy: ownerID}
	id, err := recipes.Create(ctx, recipe)
	require.NoError(t, err)

	// callback error aborts the write
	_, err = recipes.Update(ctx, id, func(*domain.Recipe) error {
		return errs.ErrForbidden
	})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	got, err := recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Title)

	updated, err := recipes.Update(ctx, id, func(r *domain.Recipe) error {
		r.Title = "Rye Bread"
		r.Ingredients = append(r.Ingredients, domain.Ingredient{Name: "rye"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Rye Bread", updated.Title)

	got, err = recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rye Bread", got.Title)
	assert.Equal(t, []domain.Ingredient{{Name: "rye", Quantity: ""}}, got.Ingredients)
}

func TestRecipeRepository_Update_NoChange(t *testing.T) {
	ctx := context.Background()
	users, recipes, db := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	id, err := recipes.Create(ctx, &domain.Recipe{Title: "Bread", CreatedBy: ownerID})
	require.NoError(t, err)

	var beforeUpdatedAt time.Time
	require.NoError(t, db.QueryRowContext(ctx, `SELECT updated_at FROM recipes WHERE id = ?`, id).Scan(&beforeUpdatedAt))

	returned, err := recipes.Update(ctx, id, func(*domain.Recipe) error {
		return repository.ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, "Bread", returned.Title)

	var afterUpdatedAt time.Time
	require.NoError(t, db.QueryRowContext(ctx, `SELECT updated_at FROM recipes WHERE id = ?`, id).Scan(&afterUpdatedAt))
	assert.True(t, beforeUpdatedAt.Equal(afterUpdatedAt), "no-op must not touch the row")
}

func TestRecipeRepository_Delete(t *testing.T) {
	ctx := context.Background()
	users, recipes, db := newTestRepos(t)
	ownerID := createTestUser(t, users, "alice")

	id, err := recipes.Create(ctx, &domain.Recipe{Title: "Bread", CreatedBy: ownerID})
	require.NoError(t, err)

	err = recipes.Delete(ctx, id, func(*domain.Recipe) error { return errs.ErrForbidden })
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = recipes.Get(ctx, id)
	require.NoError(t, err, "denied delete must not remove the row")

	require.NoError(t, recipes.Delete(ctx, id, func(*domain.Recipe) error { return nil }))
	_, err = recipes.Get(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.ErrorIs(t, recipes.Delete(ctx, id, func(*domain.Recipe) error { return nil }), errs.ErrNotFound)

	// rows with malformed blobs can still be deleted
	badID := insertMalformedRecipe(t, db, ownerID)
	require.NoError(t, recipes.Delete(ctx, badID, func(*domain.Recipe) error { return nil }))
}

func TestRecipeRepository_SearchByOwner(t *testing.T) {
	ctx := context.Background()
	users, recipes, _ := newTestRepos(t)
	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	_, err := recipes.Create(ctx, &domain.Recipe{
		Title:       "Sourdough Bread",
		Ingredients: []domain.Ingredient{{Name: "starter", Quantity: "a cup of flour paste"}},
		CreatedBy:   alice,
	})
	require.NoError(t, err)
	_, err = recipes.Create(ctx, &domain.Recipe{
		Title:     "Flour Tortillas",
		CreatedBy: bob,
	})
	require.NoError(t, err)

	// case-insensitive title match, owner scoped
	found, err := recipes.SearchByOwner(ctx, alice, "SOURDOUGH")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Sourdough Bread", found[0].Title)

	// matches inside the encoded ingredients blob, including quantity text
	found, err = recipes.SearchByOwner(ctx, alice, "flour paste")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	// another owner's matching recipe is invisible, not an error
	found, err = recipes.SearchByOwner(ctx, alice, "tortilla")
	require.NoError(t, err)
	assert.Empty(t, found)
}
