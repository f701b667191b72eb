package recipe

import "time"

// Category classifies a recipe by the meal it belongs to. The numeric values
// are stored in the database and reused by the weekly menu engine.
type Category int

const (
	CategoryDessert   Category = 0
	CategoryBreakfast Category = 1
	CategoryLunch     Category = 2
	CategoryDinner    Category = 3
)

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c >= CategoryDessert && c <= CategoryDinner
}

func (c Category) String() string {
	switch c {
	case CategoryDessert:
		return "dessert"
	case CategoryBreakfast:
		return "breakfast"
	case CategoryLunch:
		return "lunch"
	case CategoryDinner:
		return "dinner"
	}
	return "unknown"
}

// ParseCategory maps a category name to its enum value.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "dessert":
		return CategoryDessert, true
	case "breakfast":
		return CategoryBreakfast, true
	case "lunch":
		return CategoryLunch, true
	case "dinner":
		return CategoryDinner, true
	}
	return 0, false
}

// Recipe represents a shared recipe.
type Recipe struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     Category  `json:"category"`
	DietID       *int64    `json:"diet_id,omitempty"`
	CostID       *int64    `json:"cost_id,omitempty"`
	DifficultyID *int64    `json:"difficulty_id,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	PrepMinutes  int       `json:"prep_minutes"`
	Servings     int       `json:"servings"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	AllergyIDs   []int64   `json:"allergy_ids,omitempty"`
	AvgRating    float64   `json:"avg_rating"`
	RatingCount  int       `json:"rating_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sort orders accepted by List.
const (
	SortNewest = "newest"
	SortTitle  = "title"
	SortRating = "rating"
)

// ListFilter narrows and pages the recipe listing.
type ListFilter struct {
	Category *Category
	DietID   *int64
	UserID   *int64
	Search   string
	Sort     string
	Page     int
	PerPage  int
}
