package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a recipe together with its allergen links.
func (r *Repository) Create(ctx context.Context, rec *Recipe) (*Recipe, error) {
	ingredientsJSON, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
        INSERT INTO recipes (user_id, title, description, category, diet_id, cost_id, difficulty_id,
                             image_url, prep_minutes, servings, ingredients, instructions, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Title, rec.Description, int(rec.Category), rec.DietID, rec.CostID, rec.DifficultyID,
		rec.ImageURL, rec.PrepMinutes, rec.Servings, string(ingredientsJSON), rec.Instructions, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted recipe id: %w", err)
	}

	for _, allergyID := range rec.AllergyIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_allergies (recipe_id, allergy_id) VALUES (?, ?)`, id, allergyID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert recipe allergy %d: %w", allergyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recipe insert: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Update rewrites a recipe's mutable fields and allergen links.
func (r *Repository) Update(ctx context.Context, rec *Recipe) error {
	ingredientsJSON, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        UPDATE recipes
        SET title = ?, description = ?, category = ?, diet_id = ?, cost_id = ?, difficulty_id = ?,
            image_url = ?, prep_minutes = ?, servings = ?, ingredients = ?, instructions = ?, updated_at = ?
        WHERE id = ?`,
		rec.Title, rec.Description, int(rec.Category), rec.DietID, rec.CostID, rec.DifficultyID,
		rec.ImageURL, rec.PrepMinutes, rec.Servings, string(ingredientsJSON), rec.Instructions,
		time.Now().UTC(), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_allergies WHERE recipe_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear recipe allergies: %w", err)
	}
	for _, allergyID := range rec.AllergyIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_allergies (recipe_id, allergy_id) VALUES (?, ?)`, rec.ID, allergyID)
		if err != nil {
			return fmt.Errorf("failed to insert recipe allergy %d: %w", allergyID, err)
		}
	}

	return tx.Commit()
}

// Delete removes a recipe. Dependent rows cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

const recipeColumns = `
    r.id, r.user_id, r.title, r.description, r.category, r.diet_id, r.cost_id, r.difficulty_id,
    r.image_url, r.prep_minutes, r.servings, r.ingredients, r.instructions, r.created_at, r.updated_at,
    COALESCE(AVG(c.rating), 0), COUNT(c.id)`

// GetByID retrieves a recipe with its rating summary and allergen ids.
// Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Recipe, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+recipeColumns+`
        FROM recipes r
        LEFT JOIN comments c ON c.recipe_id = r.id
        WHERE r.id = ?
        GROUP BY r.id`, id)

	rec, err := scanRecipe(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, err
	}

	allergyRows, err := r.db.QueryContext(ctx, `SELECT allergy_id FROM recipe_allergies WHERE recipe_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe allergies: %w", err)
	}
	defer allergyRows.Close()
	for allergyRows.Next() {
		var allergyID int64
		if err := allergyRows.Scan(&allergyID); err != nil {
			return nil, fmt.Errorf("failed to scan allergy id: %w", err)
		}
		rec.AllergyIDs = append(rec.AllergyIDs, allergyID)
	}
	if err := allergyRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allergy rows: %w", err)
	}

	return rec, nil
}

// TitlesByIDs maps recipe ids to their titles, for menu rendering.
func (r *Repository) TitlesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	titles := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title FROM recipes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan recipe title: %w", err)
		}
		titles[id] = title
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title rows: %w", err)
	}
	return titles, nil
}

// List returns a page of recipes plus the total match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Recipe, int, error) {
	var where []string
	var args []any

	if f.Category != nil {
		where = append(where, "r.category = ?")
		args = append(args, int(*f.Category))
	}
	if f.DietID != nil {
		where = append(where, "r.diet_id = ?")
		args = append(args, *f.DietID)
	}
	if f.UserID != nil {
		where = append(where, "r.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Search != "" {
		where = append(where, "r.title LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM recipes r` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	orderBy := "r.created_at DESC"
	switch f.Sort {
	case SortTitle:
		orderBy = "r.title ASC"
	case SortRating:
		orderBy = "COALESCE(AVG(c.rating), 0) DESC"
	}

	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.PerPage

	query := `
        SELECT ` + recipeColumns + `
        FROM recipes r
        LEFT JOIN comments c ON c.recipe_id = r.id` + whereClause + `
        GROUP BY r.id
        ORDER BY ` + orderBy + `
        LIMIT ? OFFSET ?`
	args = append(args, f.PerPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating recipe rows: %w", err)
	}

	return recipes, total, nil
}

func scanRecipe(scan func(dest ...any) error) (*Recipe, error) {
	var rec Recipe
	var category int
	var ingredientsJSON string

	err := scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &category,
		&rec.DietID, &rec.CostID, &rec.DifficultyID, &rec.ImageURL,
		&rec.PrepMinutes, &rec.Servings, &ingredientsJSON, &rec.Instructions,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.AvgRating, &rec.RatingCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}

	rec.Category = Category(category)
	if err := json.Unmarshal([]byte(ingredientsJSON), &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients for recipe %d: %w", rec.ID, err)
	}
	return &rec, nil
}
