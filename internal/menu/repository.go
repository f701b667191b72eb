package menu

import (
	"context"
	"database/sql"
	"fmt"

	"recipeshare/internal/recipe"
)

// Repository implements Store over SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceWeek deletes and reinserts a user's week in one transaction so a
// crash between the delete and the insert can never leave a partial week.
func (r *Repository) ReplaceWeek(ctx context.Context, userID int64, flag WeekFlag, slots []Slot) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM menu_items WHERE user_id = ? AND next_week = ?`, userID, int(flag))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old week: %w", err)
	}

	count := 0
	for i := range slots {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO menu_items (user_id, next_week, day, meal, recipe_id) VALUES (?, ?, ?, ?, ?)`,
			userID, int(flag), slots[i].Day, int(slots[i].Meal), slots[i].RecipeID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert menu item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read inserted menu item id: %w", err)
		}
		slots[i].ID = id
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit week replace: %w", err)
	}
	return count, nil
}

// WeekSlots returns a user's week, grid first (day then meal), desserts last.
func (r *Repository) WeekSlots(ctx context.Context, userID int64, flag WeekFlag) ([]Slot, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, day, meal, recipe_id
        FROM menu_items
        WHERE user_id = ? AND next_week = ?
        ORDER BY (day IS NULL), day, meal`, userID, int(flag))
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var s Slot
		var meal int
		if err := rows.Scan(&s.ID, &s.Day, &meal, &s.RecipeID); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		s.Meal = recipe.Category(meal)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu rows: %w", err)
	}
	return slots, nil
}

// PatchSlot updates one slot's recipe, scoped to the owning user so one user
// cannot patch another's slot.
func (r *Repository) PatchSlot(ctx context.Context, userID, itemID, recipeID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET recipe_id = ? WHERE id = ? AND user_id = ?`,
		recipeID, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to patch menu item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RolloverWeeks deletes every user's current week and promotes next week to
// current, as a flag flip with no data copy.
func (r *Repository) RolloverWeeks(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE next_week = 0`); err != nil {
		return fmt.Errorf("failed to delete current-week items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE menu_items SET next_week = 0 WHERE next_week = 1`); err != nil {
		return fmt.Errorf("failed to promote next-week items: %w", err)
	}

	return tx.Commit()
}
