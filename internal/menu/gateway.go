package menu

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"recipeshare/internal/recipe"
)

// SQLPreferenceGateway implements PreferenceGateway over the primary store.
type SQLPreferenceGateway struct {
	db       *sql.DB
	excluded *DontRecommendRepository
}

// NewSQLPreferenceGateway creates a new SQLPreferenceGateway.
func NewSQLPreferenceGateway(db *sql.DB, excluded *DontRecommendRepository) *SQLPreferenceGateway {
	return &SQLPreferenceGateway{db: db, excluded: excluded}
}

// PreferenceProfile assembles the user's dietary snapshot. Returns (nil, nil)
// when the user does not exist.
func (g *SQLPreferenceGateway) PreferenceProfile(ctx context.Context, userID int64) (*PreferenceProfile, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT diet_id, cost_id, difficulty_id FROM users WHERE id = ?`, userID)

	var p PreferenceProfile
	if err := row.Scan(&p.DietID, &p.CostID, &p.DifficultyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan preference profile: %w", err)
	}

	rows, err := g.db.QueryContext(ctx, `SELECT allergy_id FROM user_allergies WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user allergies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan allergy id: %w", err)
		}
		p.AllergyIDs = append(p.AllergyIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allergy rows: %w", err)
	}

	return &p, nil
}

// EligibleRecipeIDs builds the four candidate pools for a profile. A recipe
// matches when its category fits, it carries none of the user's allergens,
// its diet matches the user's (untagged recipes match any diet), and its cost
// and difficulty rank at or below the user's preference.
func (g *SQLPreferenceGateway) EligibleRecipeIDs(ctx context.Context, profile *PreferenceProfile) (*Pools, error) {
	pools := Pools{}
	categories := []struct {
		cat  recipe.Category
		dest *[]int64
	}{
		{recipe.CategoryBreakfast, &pools.Breakfast},
		{recipe.CategoryLunch, &pools.Lunch},
		{recipe.CategoryDinner, &pools.Dinner},
		{recipe.CategoryDessert, &pools.Dessert},
	}

	for _, c := range categories {
		ids, err := g.eligibleForCategory(ctx, profile, c.cat)
		if err != nil {
			return nil, err
		}
		*c.dest = ids
	}
	return &pools, nil
}

func (g *SQLPreferenceGateway) eligibleForCategory(ctx context.Context, profile *PreferenceProfile, cat recipe.Category) ([]int64, error) {
	var sb strings.Builder
	args := []any{int(cat)}

	sb.WriteString(`SELECT r.id FROM recipes r WHERE r.category = ?`)

	if profile.DietID != nil {
		sb.WriteString(` AND (r.diet_id IS NULL OR r.diet_id = ?)`)
		args = append(args, *profile.DietID)
	}
	if profile.CostID != nil {
		sb.WriteString(` AND (r.cost_id IS NULL OR
            (SELECT rank FROM costs WHERE id = r.cost_id) <=
            (SELECT rank FROM costs WHERE id = ?))`)
		args = append(args, *profile.CostID)
	}
	if profile.DifficultyID != nil {
		sb.WriteString(` AND (r.difficulty_id IS NULL OR
            (SELECT rank FROM difficulties WHERE id = r.difficulty_id) <=
            (SELECT rank FROM difficulties WHERE id = ?))`)
		args = append(args, *profile.DifficultyID)
	}
	if len(profile.AllergyIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(profile.AllergyIDs)), ",")
		sb.WriteString(` AND NOT EXISTS (
            SELECT 1 FROM recipe_allergies ra
            WHERE ra.recipe_id = r.id AND ra.allergy_id IN (` + placeholders + `))`)
		for _, id := range profile.AllergyIDs {
			args = append(args, id)
		}
	}
	sb.WriteString(` ORDER BY r.id`)

	rows, err := g.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible %s recipes: %w", cat, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recipe id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe rows: %w", err)
	}
	return ids, nil
}

// DontRecommendSet returns the user's exclusion list as a set.
func (g *SQLPreferenceGateway) DontRecommendSet(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	return g.excluded.Set(ctx, userID)
}

// DontRecommendRepository maintains the per-user "don't recommend" exclusion
// list. Membership is purely additive, no ordering or weighting.
type DontRecommendRepository struct {
	db *sql.DB
}

// NewDontRecommendRepository creates a new DontRecommendRepository.
func NewDontRecommendRepository(db *sql.DB) *DontRecommendRepository {
	return &DontRecommendRepository{db: db}
}

// Add puts a recipe on the user's exclusion list. Duplicates are a no-op.
func (r *DontRecommendRepository) Add(ctx context.Context, userID, recipeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO dont_recommend (user_id, recipe_id) VALUES (?, ?)`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to insert dont_recommend entry: %w", err)
	}
	return nil
}

// Remove takes a recipe off the user's exclusion list.
func (r *DontRecommendRepository) Remove(ctx context.Context, userID, recipeID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dont_recommend WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete dont_recommend entry: %w", err)
	}
	return nil
}

// List returns the user's excluded recipe ids.
func (r *DontRecommendRepository) List(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM dont_recommend WHERE user_id = ? ORDER BY recipe_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dont_recommend entries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recipe id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dont_recommend rows: %w", err)
	}
	return ids, nil
}

// Set returns the exclusion list as a membership set.
func (r *DontRecommendRepository) Set(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	ids, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
