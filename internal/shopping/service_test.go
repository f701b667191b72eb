package shopping

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"recipeshare/internal/apperr"
	"recipeshare/internal/database"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(NewRepository(db.SQL)), db.SQL
}

func insertUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO users (email, name, password_hash, verified) VALUES (?, ?, 'x', 1)`,
		email, email)
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestShoppingList(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	alice := insertUser(t, db, "alice@example.com")
	bob := insertUser(t, db, "bob@example.com")

	milk, err := svc.Add(ctx, alice, "Milk", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	eggs, err := svc.Add(ctx, alice, "Eggs", nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	t.Run("EmptyLabel", func(t *testing.T) {
		_, err := svc.Add(ctx, alice, "  ", nil)
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("ListIsPerUser", func(t *testing.T) {
		items, err := svc.List(ctx, alice)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(items))
		}
		others, _ := svc.List(ctx, bob)
		if len(others) != 0 {
			t.Errorf("Expected empty list for bob, got %d", len(others))
		}
	})

	t.Run("SetChecked", func(t *testing.T) {
		if err := svc.SetChecked(ctx, alice, milk.ID, true); err != nil {
			t.Fatalf("SetChecked failed: %v", err)
		}
		items, _ := svc.List(ctx, alice)
		checked := 0
		for _, it := range items {
			if it.Checked {
				checked++
			}
		}
		if checked != 1 {
			t.Errorf("Expected 1 checked item, got %d", checked)
		}
	})

	t.Run("OtherUserForbidden", func(t *testing.T) {
		if err := svc.SetChecked(ctx, bob, milk.ID, true); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("Expected ErrForbidden, got %v", err)
		}
		if err := svc.Delete(ctx, bob, eggs.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("ClearChecked", func(t *testing.T) {
		removed, err := svc.ClearChecked(ctx, alice)
		if err != nil {
			t.Fatalf("ClearChecked failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("Expected 1 removed, got %d", removed)
		}
		items, _ := svc.List(ctx, alice)
		if len(items) != 1 || items[0].ID != eggs.ID {
			t.Errorf("Expected only unchecked item left, got %+v", items)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := svc.Delete(ctx, alice, eggs.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		items, _ := svc.List(ctx, alice)
		if len(items) != 0 {
			t.Errorf("Expected empty list, got %d items", len(items))
		}
	})

	t.Run("UnknownItem", func(t *testing.T) {
		if err := svc.Delete(ctx, alice, 9999); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}
