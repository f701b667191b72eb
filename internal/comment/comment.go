// Package comment implements recipe comments with 1-5 star ratings.
package comment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"recipeshare/internal/apperr"
)

// Comment is a rated remark on a recipe.
type Comment struct {
	ID         int64     `json:"id"`
	RecipeID   int64     `json:"recipe_id"`
	UserID     int64     `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository is a database-backed repository for comments.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a comment and returns its id.
func (r *Repository) Create(ctx context.Context, c *Comment) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (recipe_id, user_id, body, rating, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.RecipeID, c.UserID, c.Body, c.Rating, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted comment id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a comment. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT c.id, c.recipe_id, c.user_id, u.name, c.body, c.rating, c.created_at
        FROM comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.id = ?`, id)

	var c Comment
	err := row.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.AuthorName, &c.Body, &c.Rating, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Comment not found
		}
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}
	return &c, nil
}

// ListByRecipe returns a recipe's comments, newest first.
func (r *Repository) ListByRecipe(ctx context.Context, recipeID int64) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT c.id, c.recipe_id, c.user_id, u.name, c.body, c.rating, c.created_at
        FROM comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.recipe_id = ?
        ORDER BY c.created_at DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.RecipeID, &c.UserID, &c.AuthorName, &c.Body, &c.Rating, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}
	return comments, nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// Service applies validation and ownership rules for comments.
type Service struct {
	repo *Repository
}

// NewService creates a new Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Add validates and stores a comment by userID on a recipe.
func (s *Service) Add(ctx context.Context, userID, recipeID int64, body string, rating int) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.InvalidInput("comment body is required")
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.InvalidInput("rating must be between 1 and 5, got %d", rating)
	}

	id, err := s.repo.Create(ctx, &Comment{RecipeID: recipeID, UserID: userID, Body: body, Rating: rating})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ListForRecipe returns a recipe's comments.
func (s *Service) ListForRecipe(ctx context.Context, recipeID int64) ([]Comment, error) {
	return s.repo.ListByRecipe(ctx, recipeID)
}

// Delete removes a comment the caller authored.
func (s *Service) Delete(ctx context.Context, userID, commentID int64) error {
	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.NotFound("comment %d", commentID)
	}
	if c.UserID != userID {
		return apperr.ErrForbidden
	}
	return s.repo.Delete(ctx, commentID)
}
