// Package favorite implements per-user favourite groups.
package favorite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"recipeshare/internal/apperr"
)

// Group is a named collection of favourite recipes.
type Group struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	RecipeIDs []int64   `json:"recipe_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is a database-backed repository for favourite groups.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateGroup inserts a named group for the user.
func (r *Repository) CreateGroup(ctx context.Context, userID int64, name string) (*Group, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO favorite_groups (user_id, name, created_at) VALUES (?, ?, ?)`,
		userID, name, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert favorite group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted group id: %w", err)
	}
	return r.GetGroup(ctx, id)
}

// GetGroup retrieves a group with its recipe ids. Returns (nil, nil) when absent.
func (r *Repository) GetGroup(ctx context.Context, id int64) (*Group, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM favorite_groups WHERE id = ?`, id)

	var g Group
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Group not found
		}
		return nil, fmt.Errorf("failed to scan favorite group: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM favorites WHERE group_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID int64
		if err := rows.Scan(&recipeID); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		g.RecipeIDs = append(g.RecipeIDs, recipeID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}
	return &g, nil
}

// ListGroups returns all of a user's groups with their recipe ids.
func (r *Repository) ListGroups(ctx context.Context, userID int64) ([]Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM favorite_groups WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorite groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	for i := range groups {
		full, err := r.GetGroup(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		if full != nil {
			groups[i].RecipeIDs = full.RecipeIDs
		}
	}
	return groups, nil
}

// DeleteGroup removes a group and its memberships.
func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorite_groups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete favorite group: %w", err)
	}
	return nil
}

// AddRecipe links a recipe into a group. Duplicate adds are a no-op.
func (r *Repository) AddRecipe(ctx context.Context, groupID, recipeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (group_id, recipe_id, created_at) VALUES (?, ?, ?)`,
		groupID, recipeID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// RemoveRecipe unlinks a recipe from a group.
func (r *Repository) RemoveRecipe(ctx context.Context, groupID, recipeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE group_id = ? AND recipe_id = ?`, groupID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// Service applies ownership rules for favourite groups.
type Service struct {
	repo *Repository
}

// NewService creates a new Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateGroup makes a new named group for the user.
func (s *Service) CreateGroup(ctx context.Context, userID int64, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("group name is required")
	}
	return s.repo.CreateGroup(ctx, userID, name)
}

// ListGroups returns the user's groups.
func (s *Service) ListGroups(ctx context.Context, userID int64) ([]Group, error) {
	return s.repo.ListGroups(ctx, userID)
}

// DeleteGroup removes a group the caller owns.
func (s *Service) DeleteGroup(ctx context.Context, userID, groupID int64) error {
	g, err := s.ownedGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	return s.repo.DeleteGroup(ctx, g.ID)
}

// AddRecipe puts a recipe into one of the caller's groups.
func (s *Service) AddRecipe(ctx context.Context, userID, groupID, recipeID int64) error {
	g, err := s.ownedGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	return s.repo.AddRecipe(ctx, g.ID, recipeID)
}

// RemoveRecipe takes a recipe out of one of the caller's groups.
func (s *Service) RemoveRecipe(ctx context.Context, userID, groupID, recipeID int64) error {
	g, err := s.ownedGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	return s.repo.RemoveRecipe(ctx, g.ID, recipeID)
}

func (s *Service) ownedGroup(ctx context.Context, userID, groupID int64) (*Group, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperr.NotFound("favorite group %d", groupID)
	}
	if g.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	return g, nil
}
