package shopping

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles persistence of shopping list items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a new item and returns it.
func (r *Repository) Add(ctx context.Context, userID int64, label string, recipeID *int64) (*Item, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_items (user_id, label, recipe_id, created_at) VALUES (?, ?, ?, ?)`,
		userID, label, recipeID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert shopping item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted item id: %w", err)
	}
	return r.Get(ctx, id)
}

// Get retrieves one item. Returns (nil, nil) when absent.
func (r *Repository) Get(ctx context.Context, id int64) (*Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, label, recipe_id, checked, created_at FROM shopping_items WHERE id = ?`, id)

	var it Item
	if err := row.Scan(&it.ID, &it.UserID, &it.Label, &it.RecipeID, &it.Checked, &it.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to scan shopping item: %w", err)
	}
	return &it, nil
}

// ListByUser returns the user's shopping list, oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, label, recipe_id, checked, created_at
         FROM shopping_items WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Label, &it.RecipeID, &it.Checked, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shopping rows: %w", err)
	}
	return items, nil
}

// SetChecked flips an item's checked flag.
func (r *Repository) SetChecked(ctx context.Context, id int64, checked bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE shopping_items SET checked = ? WHERE id = ?`, checked, id); err != nil {
		return fmt.Errorf("failed to update shopping item: %w", err)
	}
	return nil
}

// Delete removes one item.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete shopping item: %w", err)
	}
	return nil
}

// DeleteChecked clears all checked items for a user and returns the count.
func (r *Repository) DeleteChecked(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE user_id = ? AND checked = 1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete checked items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}
