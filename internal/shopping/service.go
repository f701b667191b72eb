package shopping

import (
	"context"
	"strings"

	"recipeshare/internal/apperr"
)

// Service applies validation and ownership rules for shopping lists.
type Service struct {
	repo *Repository
}

// NewService creates a new Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Add appends a new item to the caller's list.
func (s *Service) Add(ctx context.Context, userID int64, label string, recipeID *int64) (*Item, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperr.InvalidInput("item label is required")
	}
	return s.repo.Add(ctx, userID, label, recipeID)
}

// List returns the caller's shopping list.
func (s *Service) List(ctx context.Context, userID int64) ([]Item, error) {
	return s.repo.ListByUser(ctx, userID)
}

// SetChecked marks an item the caller owns as (un)checked.
func (s *Service) SetChecked(ctx context.Context, userID, itemID int64, checked bool) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.repo.SetChecked(ctx, itemID, checked)
}

// Delete removes an item the caller owns.
func (s *Service) Delete(ctx context.Context, userID, itemID int64) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, itemID)
}

// ClearChecked removes all checked items from the caller's list.
func (s *Service) ClearChecked(ctx context.Context, userID int64) (int64, error) {
	return s.repo.DeleteChecked(ctx, userID)
}

func (s *Service) ownedItem(ctx context.Context, userID, itemID int64) (*Item, error) {
	it, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperr.NotFound("shopping item %d", itemID)
	}
	if it.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	return it, nil
}
