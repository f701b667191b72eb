package menu

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"recipeshare/internal/apperr"
	"recipeshare/internal/recipe"
)

// stdRand draws from math/rand/v2's shared generator, which is safe for
// concurrent use.
type stdRand struct{}

func (stdRand) IntN(n int) int { return rand.IntN(n) }

// Engine generates weekly menus. Regeneration is serialized per
// (user, week flag) so two concurrent requests cannot interleave their
// delete-then-insert steps.
type Engine struct {
	prefs    PreferenceGateway
	store    Store
	users    UserSource
	notifier Notifier
	rng      Rand
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[weekKey]*sync.Mutex
}

type weekKey struct {
	userID int64
	flag   WeekFlag
}

// NewEngine creates a new Engine. rng may be nil, in which case the shared
// math/rand/v2 generator is used; notifier may be nil.
func NewEngine(prefs PreferenceGateway, store Store, users UserSource, notifier Notifier, rng Rand, log zerolog.Logger) *Engine {
	if rng == nil {
		rng = stdRand{}
	}
	return &Engine{
		prefs:    prefs,
		store:    store,
		users:    users,
		notifier: notifier,
		rng:      rng,
		log:      log.With().Str("component", "menu_engine").Logger(),
		locks:    make(map[weekKey]*sync.Mutex),
	}
}

func (e *Engine) lockWeek(userID int64, flag WeekFlag) func() {
	key := weekKey{userID: userID, flag: flag}
	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GenerateWeek builds and persists a full week of 23 slots for the user,
// replacing any existing week under the same flag.
func (e *Engine) GenerateWeek(ctx context.Context, userID int64, flag WeekFlag) ([]Slot, error) {
	if !flag.Valid() {
		return nil, apperr.InvalidInput("unknown week flag %d", int(flag))
	}

	unlock := e.lockWeek(userID, flag)
	defer unlock()

	pools, err := e.buildPools(ctx, userID)
	if err != nil {
		return nil, err
	}

	slots := e.assignWeek(pools)

	count, err := e.store.ReplaceWeek(ctx, userID, flag, slots)
	if err != nil {
		return nil, apperr.Internal("failed to persist week: %v", err)
	}
	if count != SlotsPerWeek {
		return nil, apperr.Internal("persisted %d slots, want %d", count, SlotsPerWeek)
	}

	return slots, nil
}

// buildPools loads the user's profile and exclusion list and derives the four
// candidate pools. Pools are rebuilt on every call, never cached.
func (e *Engine) buildPools(ctx context.Context, userID int64) (*Pools, error) {
	profile, err := e.prefs.PreferenceProfile(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load preference profile: %v", err)
	}
	if profile == nil {
		return nil, apperr.InvalidState("user %d does not exist", userID)
	}

	excluded, err := e.prefs.DontRecommendSet(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load exclusion list: %v", err)
	}

	pools, err := e.prefs.EligibleRecipeIDs(ctx, profile)
	if err != nil {
		return nil, apperr.Internal("failed to load candidate pools: %v", err)
	}

	pools.Breakfast = subtract(pools.Breakfast, excluded)
	pools.Lunch = subtract(pools.Lunch, excluded)
	pools.Dinner = subtract(pools.Dinner, excluded)
	pools.Dessert = subtract(pools.Dessert, excluded)
	return pools, nil
}

// assignWeek runs the constrained-random assignment: working pools seeded
// from the candidate pools and depleted as recipes are chosen, refilled from
// the originals when empty, with best-effort adjacency exclusion within each
// day. A chosen recipe is removed from all four working pools so it cannot
// reappear within the week until a pool cycles.
func (e *Engine) assignWeek(pools *Pools) []Slot {
	working := map[recipe.Category][]int64{
		recipe.CategoryBreakfast: slices.Clone(pools.Breakfast),
		recipe.CategoryLunch:     slices.Clone(pools.Lunch),
		recipe.CategoryDinner:    slices.Clone(pools.Dinner),
		recipe.CategoryDessert:   slices.Clone(pools.Dessert),
	}

	removeEverywhere := func(id int64) {
		for cat := range working {
			working[cat] = removeID(working[cat], id)
		}
	}

	slots := make([]Slot, 0, SlotsPerWeek)

	for day := 0; day < daysPerWeek; day++ {
		var breakfastPick, lunchPick *int64

		for _, meal := range []recipe.Category{recipe.CategoryBreakfast, recipe.CategoryLunch, recipe.CategoryDinner} {
			if len(working[meal]) == 0 {
				working[meal] = slices.Clone(pools.ForMeal(meal))
			}

			candidates := working[meal]

			// Adjacency exclusion is best-effort: each pass runs only
			// when more than one candidate remains, so it can never
			// empty the pool by itself.
			switch meal {
			case recipe.CategoryLunch:
				if breakfastPick != nil && len(candidates) > 1 {
					candidates = removeID(slices.Clone(candidates), *breakfastPick)
				}
			case recipe.CategoryDinner:
				if breakfastPick != nil || lunchPick != nil {
					candidates = slices.Clone(candidates)
				}
				if breakfastPick != nil && len(candidates) > 1 {
					candidates = removeID(candidates, *breakfastPick)
				}
				if lunchPick != nil && len(candidates) > 1 {
					candidates = removeID(candidates, *lunchPick)
				}
			}

			d := day
			slot := Slot{Day: &d, Meal: meal}
			if len(candidates) > 0 {
				pick := candidates[e.rng.IntN(len(candidates))]
				slot.RecipeID = &pick
				removeEverywhere(pick)

				switch meal {
				case recipe.CategoryBreakfast:
					breakfastPick = &pick
				case recipe.CategoryLunch:
					lunchPick = &pick
				}
			}
			slots = append(slots, slot)
		}
	}

	for i := 0; i < dessertCount; i++ {
		if len(working[recipe.CategoryDessert]) == 0 {
			working[recipe.CategoryDessert] = slices.Clone(pools.Dessert)
		}

		slot := Slot{Meal: recipe.CategoryDessert}
		if candidates := working[recipe.CategoryDessert]; len(candidates) > 0 {
			pick := candidates[e.rng.IntN(len(candidates))]
			slot.RecipeID = &pick
			removeEverywhere(pick)
		}
		slots = append(slots, slot)
	}

	return slots
}

// GenerateOneSlot re-rolls a single slot, avoiding the recipe currently in
// it. Fails NotFound when no alternative exists (pool of one or empty).
func (e *Engine) GenerateOneSlot(ctx context.Context, userID int64, req SlotRequest) (int64, error) {
	if !req.Meal.Valid() {
		return 0, apperr.InvalidInput("unknown meal category %d", int(req.Meal))
	}

	pools, err := e.buildPools(ctx, userID)
	if err != nil {
		return 0, err
	}

	pool := pools.ForMeal(req.Meal)
	if len(pool) <= 1 {
		return 0, apperr.NotFound("no alternative %s recipe available", req.Meal)
	}

	// Rejection sampling: with more than one candidate this terminates
	// almost surely; it is not deadline-bounded.
	pick := pool[e.rng.IntN(len(pool))]
	for pick == req.CurrentRecipeID {
		pick = pool[e.rng.IntN(len(pool))]
	}

	if err := e.store.PatchSlot(ctx, userID, req.ItemID, pick); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("menu item %d", req.ItemID)
		}
		return 0, apperr.Internal("failed to patch slot: %v", err)
	}

	return pick, nil
}

// Week returns the persisted week for a user.
func (e *Engine) Week(ctx context.Context, userID int64, flag WeekFlag) ([]Slot, error) {
	if !flag.Valid() {
		return nil, apperr.InvalidInput("unknown week flag %d", int(flag))
	}
	slots, err := e.store.WeekSlots(ctx, userID, flag)
	if err != nil {
		return nil, apperr.Internal("failed to load week: %v", err)
	}
	return slots, nil
}

// RunScheduledRollover promotes next week to current for all users and then
// regenerates next week for every verified user. One user's failure is
// logged and skipped, never propagated, so the rest still get a menu.
func (e *Engine) RunScheduledRollover(ctx context.Context) error {
	if err := e.store.RolloverWeeks(ctx); err != nil {
		return apperr.Internal("failed to roll weeks over: %v", err)
	}

	ids, err := e.users.VerifiedIDs(ctx)
	if err != nil {
		return apperr.Internal("failed to list verified users: %v", err)
	}

	var generated, failed int
	for _, userID := range ids {
		slots, err := e.GenerateWeek(ctx, userID, WeekNext)
		if err != nil {
			failed++
			e.log.Error().Err(err).Int64("user_id", userID).Msg("rollover generation failed")
			continue
		}
		generated++
		if e.notifier != nil {
			e.notifier.WeekGenerated(ctx, userID, slots)
		}
	}

	e.log.Info().Int("generated", generated).Int("failed", failed).Msg("weekly rollover complete")
	return nil
}

func subtract(pool []int64, excluded map[int64]struct{}) []int64 {
	if len(excluded) == 0 {
		return pool
	}
	out := pool[:0:0]
	for _, id := range pool {
		if _, ok := excluded[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func removeID(pool []int64, id int64) []int64 {
	for i, v := range pool {
		if v == id {
			return slices.Delete(pool, i, i+1)
		}
	}
	return pool
}
