package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"recipe-manager/internal/domain"
	"recipe-manager/internal/errs"
	"recipe-manager/internal/repository"
)

const createRecipesTable = `
CREATE TABLE IF NOT EXISTS recipes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	ingredients TEXT NOT NULL DEFAULT '[]',
	instructions TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	created_by INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type RecipeRepository struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func NewRecipeRepository(db *sql.DB, logger logrus.FieldLogger) repository.RecipeRepository {
	return &RecipeRepository{db: db, logger: logger}
}

func (r *RecipeRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRecipesTable); err != nil {
		return fmt.Errorf("create recipes table: %w", err)
	}
	return nil
}

// encodeIngredients serializes the ingredient list to the persisted blob.
// Every element carries a quantity key after this, so the read-time backfill
// only ever fires for rows written outside this service.
func encodeIngredients(items []domain.Ingredient) (string, error) {
	if items == nil {
		items = []domain.Ingredient{}
	}
	blob, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(blob), nil
}

func decodeIngredients(blob string) ([]domain.Ingredient, error) {
	var items []domain.Ingredient
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if items == nil {
		items = []domain.Ingredient{}
	}
	return items, nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) (int64, error) {
	blob, err := encodeIngredients(recipe.Ingredients)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO recipes (title, description, ingredients, instructions, image_url, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.Title,
		recipe.Description,
		blob,
		recipe.Instructions,
		recipe.ImageURL,
		recipe.CreatedBy,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recipe last insert id: %w", err)
	}
	recipe.ID = id
	return id, nil
}

func (r *RecipeRepository) Get(ctx context.Context, id int64) (*domain.Recipe, error) {
	return getRecipe(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecipe(ctx context.Context, q queryer, id int64) (*domain.Recipe, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, title, description, ingredients, instructions, image_url, created_by, created_at, updated_at
FROM recipes
WHERE id = ?`,
		id,
	)

	recipe, blob, err := scanRecipe(row)
	if err != nil {
		return nil, err
	}
	items, err := decodeIngredients(blob)
	if err != nil {
		return nil, fmt.Errorf("recipe %d: %w", recipe.ID, err)
	}
	recipe.Ingredients = items
	return recipe, nil
}

// List returns one page ordered by id. A row whose ingredient blob fails to
// decode is logged and skipped so one corrupt row cannot poison a whole page;
// Get of the same row reports the error instead.
func (r *RecipeRepository) List(ctx context.Context, offset, limit int) ([]domain.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, description, ingredients, instructions, image_url, created_by, created_at, updated_at
FROM recipes
ORDER BY id
LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes, err := r.collectRecipes(rows, true)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *RecipeRepository) SearchByOwner(ctx context.Context, ownerID int64, keyword string) ([]domain.Recipe, error) {
	pattern := "%" + strings.ToLower(keyword) + "%"
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, description, ingredients, instructions, image_url, created_by, created_at, updated_at
FROM recipes
WHERE created_by = ? AND (LOWER(title) LIKE ? OR LOWER(ingredients) LIKE ?)
ORDER BY id`,
		ownerID,
		pattern,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	defer rows.Close()

	return r.collectRecipes(rows, false)
}

func (r *RecipeRepository) collectRecipes(rows *sql.Rows, skipMalformed bool) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	for rows.Next() {
		recipe, blob, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		items, err := decodeIngredients(blob)
		if err != nil {
			if skipMalformed {
				r.logger.WithField("recipe_id", recipe.ID).Errorf("skipping recipe with malformed ingredients: %v", err)
				continue
			}
			return nil, fmt.Errorf("recipe %d: %w", recipe.ID, err)
		}
		recipe.Ingredients = items
		recipes = append(recipes, *recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return recipes, nil
}

// Update loads the recipe, runs apply on it, and writes the result back, all
// inside one transaction. apply returning an error aborts the write and is
// returned unchanged.
func (r *RecipeRepository) Update(ctx context.Context, id int64, apply func(*domain.Recipe) error) (*domain.Recipe, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	recipe, err := getRecipe(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(recipe); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return recipe, nil
		}
		return nil, err
	}

	blob, err := encodeIngredients(recipe.Ingredients)
	if err != nil {
		return nil, err
	}
	recipe.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
UPDATE recipes
SET title = ?, description = ?, ingredients = ?, instructions = ?, image_url = ?, updated_at = ?
WHERE id = ?`,
		recipe.Title,
		recipe.Description,
		blob,
		recipe.Instructions,
		recipe.ImageURL,
		recipe.UpdatedAt,
		recipe.ID,
	); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return recipe, nil
}

// Delete removes the recipe after authorize approves it, inside one
// transaction. Only identity columns are loaded, so a row with a malformed
// ingredient blob can still be deleted.
func (r *RecipeRepository) Delete(ctx context.Context, id int64, authorize func(*domain.Recipe) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var recipe domain.Recipe
	row := tx.QueryRowContext(ctx, `SELECT id, created_by FROM recipes WHERE id = ?`, id)
	if err := row.Scan(&recipe.ID, &recipe.CreatedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("scan recipe: %w", err)
	}

	if err := authorize(&recipe); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return tx.Commit()
}

func scanRecipe(row interface {
	Scan(dest ...any) error
}) (*domain.Recipe, string, error) {
	var (
		recipe domain.Recipe
		blob   string
	)
	if err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		&recipe.Description,
		&blob,
		&recipe.Instructions,
		&recipe.ImageURL,
		&recipe.CreatedBy,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", errs.ErrNotFound
		}
		return nil, "", fmt.Errorf("scan recipe: %w", err)
	}
	return &recipe, blob, nil
}
