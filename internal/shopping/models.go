package shopping

import "time"

// Item is one entry on a user's shopping list, optionally linked to the
// recipe it came from.
type Item struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Label     string    `json:"label"`
	RecipeID  *int64    `json:"recipe_id,omitempty"`
	Checked   bool      `json:"checked"`
	CreatedAt time.Time `json:"created_at"`
}
