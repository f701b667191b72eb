// Package menu implements the weekly menu recommender: candidate pools built
// from the user's dietary profile, constrained-random slot assignment over a
// 7-day grid plus two desserts, and the weekly rollover.
package menu

import (
	"context"

	"recipeshare/internal/recipe"
)

// WeekFlag distinguishes the active week's menu from the upcoming one.
type WeekFlag int

const (
	WeekCurrent WeekFlag = 0
	WeekNext    WeekFlag = 1
)

// Valid reports whether f is one of the two known flags.
func (f WeekFlag) Valid() bool {
	return f == WeekCurrent || f == WeekNext
}

// A full week is 7 days x 3 meals plus two dessert slots.
const (
	daysPerWeek  = 7
	dessertCount = 2
	SlotsPerWeek = daysPerWeek*3 + dessertCount
)

// Slot is one assignment unit in a weekly menu. Day is nil for the dessert
// slots; RecipeID is nil when no eligible recipe could be found.
type Slot struct {
	ID       int64           `json:"id"`
	Day      *int            `json:"day"`
	Meal     recipe.Category `json:"meal"`
	RecipeID *int64          `json:"recipe_id"`
}

// PreferenceProfile is the read-only snapshot of a user's dietary profile the
// engine filters candidate pools with.
type PreferenceProfile struct {
	AllergyIDs   []int64
	DietID       *int64
	CostID       *int64
	DifficultyID *int64
}

// Pools holds the eligible recipe ids per meal category for one generation
// call. Pools are ephemeral and rebuilt on every call.
type Pools struct {
	Breakfast []int64
	Lunch     []int64
	Dinner    []int64
	Dessert   []int64
}

// ForMeal returns the pool for a meal category.
func (p *Pools) ForMeal(meal recipe.Category) []int64 {
	switch meal {
	case recipe.CategoryBreakfast:
		return p.Breakfast
	case recipe.CategoryLunch:
		return p.Lunch
	case recipe.CategoryDinner:
		return p.Dinner
	case recipe.CategoryDessert:
		return p.Dessert
	}
	return nil
}

// PreferenceGateway supplies the engine with preference and exclusion data.
// Category membership and preference-matching rules are owned by the
// implementation, not the engine.
type PreferenceGateway interface {
	// PreferenceProfile returns (nil, nil) when the user does not exist.
	PreferenceProfile(ctx context.Context, userID int64) (*PreferenceProfile, error)
	EligibleRecipeIDs(ctx context.Context, profile *PreferenceProfile) (*Pools, error)
	DontRecommendSet(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

// Store persists weekly menus.
type Store interface {
	// ReplaceWeek atomically deletes and reinserts a user's week, returning
	// the number of slots persisted.
	ReplaceWeek(ctx context.Context, userID int64, flag WeekFlag, slots []Slot) (int, error)
	WeekSlots(ctx context.Context, userID int64, flag WeekFlag) ([]Slot, error)
	// PatchSlot updates one slot's recipe, scoped by owner. Returns
	// sql.ErrNoRows when itemID does not belong to userID.
	PatchSlot(ctx context.Context, userID, itemID, recipeID int64) error
	// RolloverWeeks deletes all current-week slots and promotes next-week
	// slots to current, for all users, in one transaction.
	RolloverWeeks(ctx context.Context) error
}

// UserSource lists the users the weekly rollover regenerates menus for.
type UserSource interface {
	VerifiedIDs(ctx context.Context) ([]int64, error)
}

// Notifier is told about freshly generated weeks so users can be messaged.
// Implementations must be non-blocking or fast; rollover calls it inline.
type Notifier interface {
	WeekGenerated(ctx context.Context, userID int64, slots []Slot)
}

// Rand is the source of uniform randomness for slot selection, injected so
// tests can assert deterministic outcomes.
type Rand interface {
	IntN(n int) int
}

// SlotRequest asks for a single slot to be re-rolled.
type SlotRequest struct {
	Meal            recipe.Category
	ItemID          int64
	CurrentRecipeID int64
}
