package menu

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"

	"recipeshare/internal/apperr"
	"recipeshare/internal/recipe"
)

type stubGateway struct {
	profiles map[int64]*PreferenceProfile
	pools    Pools
	excluded map[int64]struct{}
	poolsErr error
}

func (g *stubGateway) PreferenceProfile(_ context.Context, userID int64) (*PreferenceProfile, error) {
	return g.profiles[userID], nil
}

func (g *stubGateway) EligibleRecipeIDs(_ context.Context, _ *PreferenceProfile) (*Pools, error) {
	if g.poolsErr != nil {
		return nil, g.poolsErr
	}
	p := Pools{
		Breakfast: append([]int64(nil), g.pools.Breakfast...),
		Lunch:     append([]int64(nil), g.pools.Lunch...),
		Dinner:    append([]int64(nil), g.pools.Dinner...),
		Dessert:   append([]int64(nil), g.pools.Dessert...),
	}
	return &p, nil
}

func (g *stubGateway) DontRecommendSet(_ context.Context, _ int64) (map[int64]struct{}, error) {
	if g.excluded == nil {
		return map[int64]struct{}{}, nil
	}
	return g.excluded, nil
}

type memStore struct {
	weeks      map[weekKey][]Slot
	patches    map[int64]int64 // itemID -> recipeID
	patchOwner map[int64]int64 // itemID -> userID
	rolledOver bool
	shortCount bool
	replaceErr error
}

func newMemStore() *memStore {
	return &memStore{
		weeks:      make(map[weekKey][]Slot),
		patches:    make(map[int64]int64),
		patchOwner: make(map[int64]int64),
	}
}

func (s *memStore) ReplaceWeek(_ context.Context, userID int64, flag WeekFlag, slots []Slot) (int, error) {
	if s.replaceErr != nil {
		return 0, s.replaceErr
	}
	stored := append([]Slot(nil), slots...)
	s.weeks[weekKey{userID: userID, flag: flag}] = stored
	if s.shortCount {
		return len(slots) - 1, nil
	}
	return len(slots), nil
}

func (s *memStore) WeekSlots(_ context.Context, userID int64, flag WeekFlag) ([]Slot, error) {
	return s.weeks[weekKey{userID: userID, flag: flag}], nil
}

func (s *memStore) PatchSlot(_ context.Context, userID, itemID, recipeID int64) error {
	owner, ok := s.patchOwner[itemID]
	if !ok || owner != userID {
		return sql.ErrNoRows
	}
	s.patches[itemID] = recipeID
	return nil
}

func (s *memStore) RolloverWeeks(_ context.Context) error {
	s.rolledOver = true
	return nil
}

type staticUsers struct{ ids []int64 }

func (u *staticUsers) VerifiedIDs(_ context.Context) ([]int64, error) {
	return u.ids, nil
}

func newTestEngine(g *stubGateway, s *memStore, users UserSource, rng Rand) *Engine {
	if users == nil {
		users = &staticUsers{}
	}
	return NewEngine(g, s, users, nil, rng, zerolog.Nop())
}

func singleUserGateway(pools Pools) *stubGateway {
	return &stubGateway{
		profiles: map[int64]*PreferenceProfile{1: {}},
		pools:    pools,
	}
}

func TestGenerateWeekShape(t *testing.T) {
	g := singleUserGateway(Pools{
		Breakfast: []int64{101, 102, 103},
		Lunch:     []int64{201, 202, 203},
		Dinner:    []int64{301, 302, 303},
		Dessert:   []int64{401, 402},
	})
	eng := newTestEngine(g, newMemStore(), nil, nil)

	slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
	if err != nil {
		t.Fatalf("GenerateWeek failed: %v", err)
	}
	if len(slots) != SlotsPerWeek {
		t.Fatalf("Expected %d slots, got %d", SlotsPerWeek, len(slots))
	}

	gridSeen := make(map[[2]int]bool)
	desserts := 0
	for _, s := range slots {
		if s.Day == nil {
			if s.Meal != recipe.CategoryDessert {
				t.Errorf("Slot without a day must be a dessert, got meal %d", s.Meal)
			}
			desserts++
			continue
		}
		key := [2]int{*s.Day, int(s.Meal)}
		if gridSeen[key] {
			t.Errorf("Duplicate grid slot day=%d meal=%d", *s.Day, s.Meal)
		}
		gridSeen[key] = true
	}
	if desserts != 2 {
		t.Errorf("Expected 2 dessert slots, got %d", desserts)
	}
	if len(gridSeen) != 21 {
		t.Errorf("Expected 21 distinct grid slots, got %d", len(gridSeen))
	}
	for day := 0; day < 7; day++ {
		for _, meal := range []recipe.Category{recipe.CategoryBreakfast, recipe.CategoryLunch, recipe.CategoryDinner} {
			if !gridSeen[[2]int{day, int(meal)}] {
				t.Errorf("Missing slot day=%d meal=%d", day, meal)
			}
		}
	}
}

func TestGenerateWeekNoRepeatsWithLargePools(t *testing.T) {
	var breakfast, lunch, dinner, dessert []int64
	for i := int64(0); i < 10; i++ {
		breakfast = append(breakfast, 100+i)
		lunch = append(lunch, 200+i)
		dinner = append(dinner, 300+i)
		dessert = append(dessert, 400+i)
	}
	g := singleUserGateway(Pools{Breakfast: breakfast, Lunch: lunch, Dinner: dinner, Dessert: dessert})
	eng := newTestEngine(g, newMemStore(), nil, rand.New(rand.NewPCG(7, 11)))

	slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
	if err != nil {
		t.Fatalf("GenerateWeek failed: %v", err)
	}

	seen := make(map[int64]int)
	for _, s := range slots {
		if s.RecipeID == nil {
			t.Fatalf("Unexpected empty slot with non-empty pools")
		}
		seen[*s.RecipeID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("Recipe %d appears %d times in one week", id, n)
		}
	}
}

func TestGenerateWeekAdjacencyConstraint(t *testing.T) {
	g := singleUserGateway(Pools{
		Breakfast: []int64{1, 2, 3, 4, 5, 6, 7, 8},
		Lunch:     []int64{1, 2, 3, 4, 5, 6, 7, 8},
		Dinner:    []int64{1, 2, 3, 4, 5, 6, 7, 8},
		Dessert:   []int64{90, 91},
	})

	for seed := uint64(0); seed < 25; seed++ {
		eng := newTestEngine(g, newMemStore(), nil, rand.New(rand.NewPCG(seed, seed+1)))
		slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
		if err != nil {
			t.Fatalf("GenerateWeek failed (seed %d): %v", seed, err)
		}

		byDay := make(map[int]map[recipe.Category]int64)
		for _, s := range slots {
			if s.Day == nil || s.RecipeID == nil {
				continue
			}
			if byDay[*s.Day] == nil {
				byDay[*s.Day] = make(map[recipe.Category]int64)
			}
			byDay[*s.Day][s.Meal] = *s.RecipeID
		}

		for day, meals := range byDay {
			b, l, d := meals[recipe.CategoryBreakfast], meals[recipe.CategoryLunch], meals[recipe.CategoryDinner]
			if b == l {
				t.Errorf("seed %d day %d: breakfast and lunch share recipe %d", seed, day, b)
			}
			if l == d {
				t.Errorf("seed %d day %d: lunch and dinner share recipe %d", seed, day, l)
			}
			if b == d {
				t.Errorf("seed %d day %d: breakfast and dinner share recipe %d", seed, day, b)
			}
		}
	}
}

func TestGenerateWeekSingletonPools(t *testing.T) {
	g := singleUserGateway(Pools{
		Breakfast: []int64{11},
		Lunch:     []int64{22},
		Dinner:    []int64{33},
		Dessert:   []int64{44},
	})
	eng := newTestEngine(g, newMemStore(), nil, nil)

	slots, err := eng.GenerateWeek(context.Background(), 1, WeekNext)
	if err != nil {
		t.Fatalf("GenerateWeek failed: %v", err)
	}

	want := map[recipe.Category]int64{
		recipe.CategoryBreakfast: 11,
		recipe.CategoryLunch:     22,
		recipe.CategoryDinner:    33,
		recipe.CategoryDessert:   44,
	}
	for _, s := range slots {
		if s.RecipeID == nil {
			t.Fatalf("Expected every slot filled, got empty slot for meal %d", s.Meal)
		}
		if *s.RecipeID != want[s.Meal] {
			t.Errorf("Meal %d: expected recipe %d, got %d", s.Meal, want[s.Meal], *s.RecipeID)
		}
	}
}

func TestGenerateWeekEmptyPools(t *testing.T) {
	g := singleUserGateway(Pools{})
	store := newMemStore()
	eng := newTestEngine(g, store, nil, nil)

	slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
	if err != nil {
		t.Fatalf("GenerateWeek failed: %v", err)
	}
	if len(slots) != SlotsPerWeek {
		t.Fatalf("Expected %d slots, got %d", SlotsPerWeek, len(slots))
	}
	for _, s := range slots {
		if s.RecipeID != nil {
			t.Errorf("Expected empty slot, got recipe %d", *s.RecipeID)
		}
	}
	if got := len(store.weeks[weekKey{userID: 1, flag: WeekCurrent}]); got != SlotsPerWeek {
		t.Errorf("Expected %d persisted slots, got %d", SlotsPerWeek, got)
	}
}

func TestGenerateWeekDessertsDiffer(t *testing.T) {
	g := singleUserGateway(Pools{
		Breakfast: []int64{1},
		Lunch:     []int64{2},
		Dinner:    []int64{3},
		Dessert:   []int64{70, 71},
	})

	for seed := uint64(0); seed < 10; seed++ {
		eng := newTestEngine(g, newMemStore(), nil, rand.New(rand.NewPCG(seed, 99)))
		slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
		if err != nil {
			t.Fatalf("GenerateWeek failed: %v", err)
		}

		var desserts []int64
		for _, s := range slots {
			if s.Day == nil && s.RecipeID != nil {
				desserts = append(desserts, *s.RecipeID)
			}
		}
		if len(desserts) != 2 {
			t.Fatalf("Expected 2 dessert picks, got %d", len(desserts))
		}
		if desserts[0] == desserts[1] {
			t.Errorf("seed %d: desserts should differ with a pool of 2, both are %d", seed, desserts[0])
		}
	}
}

func TestGenerateWeekExcludesDontRecommend(t *testing.T) {
	g := singleUserGateway(Pools{
		Breakfast: []int64{1, 2},
		Lunch:     []int64{3, 4},
		Dinner:    []int64{5, 6},
		Dessert:   []int64{7, 8},
	})
	g.excluded = map[int64]struct{}{2: {}, 4: {}, 6: {}, 8: {}}
	eng := newTestEngine(g, newMemStore(), nil, rand.New(rand.NewPCG(3, 5)))

	slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
	if err != nil {
		t.Fatalf("GenerateWeek failed: %v", err)
	}
	for _, s := range slots {
		if s.RecipeID == nil {
			continue
		}
		if _, banned := g.excluded[*s.RecipeID]; banned {
			t.Errorf("Excluded recipe %d appeared in the week", *s.RecipeID)
		}
	}
}

func TestGenerateWeekInvalidFlag(t *testing.T) {
	eng := newTestEngine(singleUserGateway(Pools{}), newMemStore(), nil, nil)
	_, err := eng.GenerateWeek(context.Background(), 1, WeekFlag(2))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateWeekUnknownUser(t *testing.T) {
	eng := newTestEngine(singleUserGateway(Pools{}), newMemStore(), nil, nil)
	_, err := eng.GenerateWeek(context.Background(), 42, WeekCurrent)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}

func TestGenerateWeekShortPersistCount(t *testing.T) {
	store := newMemStore()
	store.shortCount = true
	eng := newTestEngine(singleUserGateway(Pools{Breakfast: []int64{1}}), store, nil, nil)

	_, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("Expected ErrInternal on short persist count, got %v", err)
	}
}

func TestGenerateOneSlot(t *testing.T) {
	g := singleUserGateway(Pools{Lunch: []int64{51, 52}})
	store := newMemStore()
	store.patchOwner[9] = 1
	eng := newTestEngine(g, store, nil, rand.New(rand.NewPCG(1, 2)))

	t.Run("AlwaysAvoidsCurrent", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			got, err := eng.GenerateOneSlot(context.Background(), 1, SlotRequest{
				Meal: recipe.CategoryLunch, ItemID: 9, CurrentRecipeID: 51,
			})
			if err != nil {
				t.Fatalf("GenerateOneSlot failed: %v", err)
			}
			if got != 52 {
				t.Fatalf("Expected 52, got %d", got)
			}
		}
		if store.patches[9] != 52 {
			t.Errorf("Expected slot 9 patched to 52, got %d", store.patches[9])
		}
	})

	t.Run("PoolOfOneFailsNotFound", func(t *testing.T) {
		g2 := singleUserGateway(Pools{Lunch: []int64{51}})
		eng2 := newTestEngine(g2, newMemStore(), nil, nil)
		_, err := eng2.GenerateOneSlot(context.Background(), 1, SlotRequest{
			Meal: recipe.CategoryLunch, ItemID: 9, CurrentRecipeID: 51,
		})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("EmptyPoolFailsNotFound", func(t *testing.T) {
		g2 := singleUserGateway(Pools{})
		eng2 := newTestEngine(g2, newMemStore(), nil, nil)
		_, err := eng2.GenerateOneSlot(context.Background(), 1, SlotRequest{
			Meal: recipe.CategoryDinner, ItemID: 9, CurrentRecipeID: 0,
		})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ForeignSlotFailsNotFound", func(t *testing.T) {
		_, err := eng.GenerateOneSlot(context.Background(), 1, SlotRequest{
			Meal: recipe.CategoryLunch, ItemID: 777, CurrentRecipeID: 51,
		})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound for foreign slot, got %v", err)
		}
	})

	t.Run("InvalidMeal", func(t *testing.T) {
		_, err := eng.GenerateOneSlot(context.Background(), 1, SlotRequest{
			Meal: recipe.Category(9), ItemID: 9,
		})
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, got %v", err)
		}
	})
}

type recordingNotifier struct{ notified []int64 }

func (n *recordingNotifier) WeekGenerated(_ context.Context, userID int64, _ []Slot) {
	n.notified = append(n.notified, userID)
}

func TestRunScheduledRollover(t *testing.T) {
	// User 2 has no profile, so its generation fails; user 1 and 3 must
	// still get a fresh next week.
	g := &stubGateway{
		profiles: map[int64]*PreferenceProfile{1: {}, 3: {}},
		pools:    Pools{Breakfast: []int64{1}, Lunch: []int64{2}, Dinner: []int64{3}, Dessert: []int64{4}},
	}
	store := newMemStore()
	notifier := &recordingNotifier{}
	eng := NewEngine(g, store, &staticUsers{ids: []int64{1, 2, 3}}, notifier, nil, zerolog.Nop())

	if err := eng.RunScheduledRollover(context.Background()); err != nil {
		t.Fatalf("RunScheduledRollover failed: %v", err)
	}

	if !store.rolledOver {
		t.Error("Expected RolloverWeeks to be called")
	}
	for _, id := range []int64{1, 3} {
		if got := len(store.weeks[weekKey{userID: id, flag: WeekNext}]); got != SlotsPerWeek {
			t.Errorf("User %d: expected %d next-week slots, got %d", id, SlotsPerWeek, got)
		}
	}
	if len(store.weeks[weekKey{userID: 2, flag: WeekNext}]) != 0 {
		t.Error("User 2 should not have a generated week")
	}
	if len(notifier.notified) != 2 {
		t.Errorf("Expected 2 notifications, got %d", len(notifier.notified))
	}
}

func TestGenerateWeekRefillAllowsRepeatsAcrossWeek(t *testing.T) {
	// Three breakfast recipes for seven days: each must appear at least
	// twice, which is only possible via pool refill.
	g := singleUserGateway(Pools{
		Breakfast: []int64{1, 2, 3},
		Lunch:     []int64{10, 11, 12, 13, 14, 15, 16},
		Dinner:    []int64{20, 21, 22, 23, 24, 25, 26},
		Dessert:   []int64{30, 31},
	})
	eng := newTestEngine(g, newMemStore(), nil, rand.New(rand.NewPCG(13, 17)))

	slots, err := eng.GenerateWeek(context.Background(), 1, WeekCurrent)
	if err != nil {
		t.Fatalf("GenerateWeek failed: %v", err)
	}

	breakfasts := 0
	for _, s := range slots {
		if s.Meal == recipe.CategoryBreakfast {
			if s.RecipeID == nil {
				t.Fatal("Breakfast slot should never be empty with a non-empty pool")
			}
			breakfasts++
		}
	}
	if breakfasts != 7 {
		t.Errorf("Expected 7 breakfast slots, got %d", breakfasts)
	}
}
