package menu

import (
	"context"
	"database/sql"
	"slices"
	"testing"

	"recipeshare/internal/recipe"
)

func insertRecipeFull(t *testing.T, db *sql.DB, userID int64, title string, cat recipe.Category, dietID, costID, difficultyID *int64, allergyIDs ...int64) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO recipes (user_id, title, category, diet_id, cost_id, difficulty_id) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, title, int(cat), dietID, costID, difficultyID)
	if err != nil {
		t.Fatalf("Failed to insert recipe: %v", err)
	}
	id, _ := res.LastInsertId()
	for _, aid := range allergyIDs {
		if _, err := db.Exec(`INSERT INTO recipe_allergies (recipe_id, allergy_id) VALUES (?, ?)`, id, aid); err != nil {
			t.Fatalf("Failed to tag recipe allergy: %v", err)
		}
	}
	return id
}

func ptr(v int64) *int64 { return &v }

func TestGatewayPreferenceProfile(t *testing.T) {
	db := openTestDB(t)
	gw := NewSQLPreferenceGateway(db, NewDontRecommendRepository(db))
	ctx := context.Background()

	userID := insertUser(t, db, "alice@example.com")
	if _, err := db.Exec(`UPDATE users SET diet_id = 2, cost_id = 1 WHERE id = ?`, userID); err != nil {
		t.Fatalf("Failed to set preferences: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO user_allergies (user_id, allergy_id) VALUES (?, 3)`, userID); err != nil {
		t.Fatalf("Failed to set allergy: %v", err)
	}

	t.Run("ExistingUser", func(t *testing.T) {
		p, err := gw.PreferenceProfile(ctx, userID)
		if err != nil {
			t.Fatalf("PreferenceProfile failed: %v", err)
		}
		if p == nil {
			t.Fatal("Expected a profile, got nil")
		}
		if p.DietID == nil || *p.DietID != 2 {
			t.Errorf("Expected diet 2, got %v", p.DietID)
		}
		if p.CostID == nil || *p.CostID != 1 {
			t.Errorf("Expected cost 1, got %v", p.CostID)
		}
		if p.DifficultyID != nil {
			t.Errorf("Expected nil difficulty, got %v", *p.DifficultyID)
		}
		if len(p.AllergyIDs) != 1 || p.AllergyIDs[0] != 3 {
			t.Errorf("Expected allergies [3], got %v", p.AllergyIDs)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		p, err := gw.PreferenceProfile(ctx, 9999)
		if err != nil {
			t.Fatalf("PreferenceProfile failed: %v", err)
		}
		if p != nil {
			t.Fatalf("Expected nil profile for unknown user, got %+v", p)
		}
	})
}

func TestGatewayEligibleRecipeIDs(t *testing.T) {
	db := openTestDB(t)
	gw := NewSQLPreferenceGateway(db, NewDontRecommendRepository(db))
	ctx := context.Background()

	author := insertUser(t, db, "author@example.com")

	// Lunches covering each filter dimension. Diet 3 is vegan, cost rank
	// premium=3 > budget=1, difficulty advanced=3 > easy=1, allergy 3 nuts.
	plain := insertRecipeFull(t, db, author, "Plain lunch", recipe.CategoryLunch, nil, nil, nil)
	vegan := insertRecipeFull(t, db, author, "Vegan lunch", recipe.CategoryLunch, ptr(3), nil, nil)
	otherDiet := insertRecipeFull(t, db, author, "Pescatarian lunch", recipe.CategoryLunch, ptr(4), nil, nil)
	pricey := insertRecipeFull(t, db, author, "Pricey lunch", recipe.CategoryLunch, nil, ptr(3), nil)
	hard := insertRecipeFull(t, db, author, "Hard lunch", recipe.CategoryLunch, nil, nil, ptr(3))
	nutty := insertRecipeFull(t, db, author, "Nutty lunch", recipe.CategoryLunch, nil, nil, nil, 3)
	breakfast := insertRecipeFull(t, db, author, "Toast", recipe.CategoryBreakfast, nil, nil, nil)

	t.Run("NoPreferences", func(t *testing.T) {
		pools, err := gw.EligibleRecipeIDs(ctx, &PreferenceProfile{})
		if err != nil {
			t.Fatalf("EligibleRecipeIDs failed: %v", err)
		}
		want := []int64{plain, vegan, otherDiet, pricey, hard, nutty}
		slices.Sort(want)
		if !slices.Equal(pools.Lunch, want) {
			t.Errorf("Expected lunch pool %v, got %v", want, pools.Lunch)
		}
		if !slices.Equal(pools.Breakfast, []int64{breakfast}) {
			t.Errorf("Expected breakfast pool [%d], got %v", breakfast, pools.Breakfast)
		}
		if len(pools.Dinner) != 0 || len(pools.Dessert) != 0 {
			t.Errorf("Expected empty dinner and dessert pools, got %v and %v", pools.Dinner, pools.Dessert)
		}
	})

	t.Run("FullProfile", func(t *testing.T) {
		profile := &PreferenceProfile{
			DietID:       ptr(3),
			CostID:       ptr(1),
			DifficultyID: ptr(1),
			AllergyIDs:   []int64{3},
		}
		pools, err := gw.EligibleRecipeIDs(ctx, profile)
		if err != nil {
			t.Fatalf("EligibleRecipeIDs failed: %v", err)
		}
		// Untagged recipes match any diet; tagged ones must match exactly.
		// Cost and difficulty above the user's rank are out, as are
		// recipes carrying a listed allergen.
		want := []int64{plain, vegan}
		slices.Sort(want)
		if !slices.Equal(pools.Lunch, want) {
			t.Errorf("Expected lunch pool %v, got %v", want, pools.Lunch)
		}
	})

	t.Run("HighRankAllowsCheaper", func(t *testing.T) {
		profile := &PreferenceProfile{CostID: ptr(3)}
		pools, err := gw.EligibleRecipeIDs(ctx, profile)
		if err != nil {
			t.Fatalf("EligibleRecipeIDs failed: %v", err)
		}
		if !slices.Contains(pools.Lunch, pricey) || !slices.Contains(pools.Lunch, plain) {
			t.Errorf("Premium preference should admit all cost ranks, got %v", pools.Lunch)
		}
	})
}

func TestDontRecommendRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewDontRecommendRepository(db)
	ctx := context.Background()

	userID := insertUser(t, db, "alice@example.com")
	r1 := insertRecipe(t, db, userID, "One", recipe.CategoryLunch)
	r2 := insertRecipe(t, db, userID, "Two", recipe.CategoryLunch)

	if err := repo.Add(ctx, userID, r1); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	// Duplicate add is a no-op.
	if err := repo.Add(ctx, userID, r1); err != nil {
		t.Fatalf("Duplicate Add failed: %v", err)
	}
	if err := repo.Add(ctx, userID, r2); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ids, err := repo.List(ctx, userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 excluded recipes, got %v", ids)
	}

	set, err := repo.Set(ctx, userID)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := set[r1]; !ok {
		t.Errorf("Expected recipe %d in exclusion set", r1)
	}

	if err := repo.Remove(ctx, userID, r1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	ids, _ = repo.List(ctx, userID)
	if len(ids) != 1 || ids[0] != r2 {
		t.Errorf("Expected only recipe %d excluded, got %v", r2, ids)
	}
}
