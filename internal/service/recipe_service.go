package service

import (
	"context"
	"strings"

	"recipe-manager/internal/domain"
	"recipe-manager/internal/errs"
	"recipe-manager/internal/repository"
)

// RecipeService coordinates recipe operations: validation, ownership
// enforcement, and the ingredient-list rules around reads and mutations.
type RecipeService interface {
	Create(ctx context.Context, in *CreateRecipeInput, ownerID int64) (*domain.Recipe, error)
	Get(ctx context.Context, id int64) (*domain.Recipe, error)
	List(ctx context.Context, page int) ([]domain.Recipe, error)
	Update(ctx context.Context, id int64, in *UpdateRecipeInput, callerID int64) (*domain.Recipe, error)
	Delete(ctx context.Context, id int64, callerID int64) error
	AppendIngredients(ctx context.Context, id int64, items []domain.Ingredient, callerID int64) (*domain.Recipe, error)
	Search(ctx context.Context, keyword string, callerID int64) ([]domain.Recipe, error)
	SetImage(ctx context.Context, id int64, callerID int64, imageURL string) (*domain.Recipe, error)
}

type recipeService struct {
	recipes  repository.RecipeRepository
	pageSize int
}

func NewRecipeService(recipes repository.RecipeRepository, pageSize int) RecipeService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &recipeService{recipes: recipes, pageSize: pageSize}
}

func (s *recipeService) Create(ctx context.Context, in *CreateRecipeInput, ownerID int64) (*domain.Recipe, error) {
	recipe := &domain.Recipe{
		Title:        in.Title,
		Description:  in.Description,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
		CreatedBy:    ownerID,
	}
	if _, err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) Get(ctx context.Context, id int64) (*domain.Recipe, error) {
	return s.recipes.Get(ctx, id)
}

// List returns the requested one-based page. Pages start at 1; the caller is
// responsible for rejecting invalid page values before calling.
func (s *recipeService) List(ctx context.Context, page int) ([]domain.Recipe, error) {
	if page < 1 {
		return nil, errs.Validation("Invalid page value")
	}
	offset := (page - 1) * s.pageSize
	return s.recipes.List(ctx, offset, s.pageSize)
}

// Update applies a partial update: absent fields keep their stored value, a
// present ingredient list replaces the stored one wholesale. Not-found takes
// precedence over the ownership check.
func (s *recipeService) Update(ctx context.Context, id int64, in *UpdateRecipeInput, callerID int64) (*domain.Recipe, error) {
	return s.recipes.Update(ctx, id, func(recipe *domain.Recipe) error {
		if recipe.CreatedBy != callerID {
			return errs.ErrForbidden
		}
		if in.Title != nil {
			recipe.Title = *in.Title
		}
		if in.Description != nil {
			recipe.Description = *in.Description
		}
		if in.Instructions != nil {
			recipe.Instructions = *in.Instructions
		}
		if in.HasIngredients {
			recipe.Ingredients = in.Ingredients
		}
		return nil
	})
}

func (s *recipeService) Delete(ctx context.Context, id int64, callerID int64) error {
	return s.recipes.Delete(ctx, id, func(recipe *domain.Recipe) error {
		if recipe.CreatedBy != callerID {
			return errs.ErrForbidden
		}
		return nil
	})
}

// AppendIngredients concatenates items to the end of the stored list, order
// preserved, duplicates allowed. An empty items slice still runs the
// not-found and ownership checks but leaves the row untouched.
func (s *recipeService) AppendIngredients(ctx context.Context, id int64, items []domain.Ingredient, callerID int64) (*domain.Recipe, error) {
	return s.recipes.Update(ctx, id, func(recipe *domain.Recipe) error {
		if recipe.CreatedBy != callerID {
			return errs.ErrForbidden
		}
		if len(items) == 0 {
			return repository.ErrNoChange
		}
		recipe.Ingredients = append(recipe.Ingredients, items...)
		return nil
	})
}

// Search is silently scoped to the caller's own recipes: a matching recipe
// owned by someone else is never returned, and no signal that broader matches
// exist is given. An empty result is a valid, successful outcome.
func (s *recipeService) Search(ctx context.Context, keyword string, callerID int64) ([]domain.Recipe, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errs.Validation(`Query parameter "q" is required for search`)
	}
	return s.recipes.SearchByOwner(ctx, callerID, keyword)
}

func (s *recipeService) SetImage(ctx context.Context, id int64, callerID int64, imageURL string) (*domain.Recipe, error) {
	return s.recipes.Update(ctx, id, func(recipe *domain.Recipe) error {
		if recipe.CreatedBy != callerID {
			return errs.ErrForbidden
		}
		recipe.ImageURL = imageURL
		return nil
	})
}
