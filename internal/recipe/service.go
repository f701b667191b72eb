package recipe

import (
	"context"
	"strings"

	"recipeshare/internal/apperr"
)

// Service applies ownership and validation rules on top of the Repository.
type Service struct {
	repo *Repository
}

// NewService creates a new Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new recipe owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, rec Recipe) (*Recipe, error) {
	rec.UserID = userID
	if err := validate(&rec); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, &rec)
}

// Get returns a recipe, as a NotFound error when absent.
func (s *Service) Get(ctx context.Context, id int64) (*Recipe, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound("recipe %d", id)
	}
	return rec, nil
}

// Update rewrites a recipe the caller owns.
func (s *Service) Update(ctx context.Context, userID, recipeID int64, rec Recipe) (*Recipe, error) {
	existing, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, apperr.ErrForbidden
	}

	rec.ID = recipeID
	rec.UserID = userID
	if err := validate(&rec); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &rec); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, recipeID)
}

// Delete removes a recipe the caller owns.
func (s *Service) Delete(ctx context.Context, userID, recipeID int64) error {
	existing, err := s.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return apperr.ErrForbidden
	}
	return s.repo.Delete(ctx, recipeID)
}

// List returns a filtered page of recipes and the total match count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Recipe, int, error) {
	if f.Sort != "" && f.Sort != SortNewest && f.Sort != SortTitle && f.Sort != SortRating {
		return nil, 0, apperr.InvalidInput("unknown sort %q", f.Sort)
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	return s.repo.List(ctx, f)
}

func validate(rec *Recipe) error {
	rec.Title = strings.TrimSpace(rec.Title)
	if rec.Title == "" {
		return apperr.InvalidInput("recipe title is required")
	}
	if !rec.Category.Valid() {
		return apperr.InvalidInput("unknown recipe category %d", rec.Category)
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []string{}
	}
	return nil
}
