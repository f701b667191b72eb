package recipe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipeshare/internal/apperr"
)

type fakeTextGen struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeTextGen) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.response, f.err
}

const recipePage = `<html><head><style>body{}</style></head><body>
<script>tracking()</script>
<nav>Menu</nav>
<h1>Shakshuka</h1>
<p>Eggs poached in tomato sauce.</p>
<footer>Copyright</footer>
</body></html>`

func TestImportFromURL(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	author := insertUser(t, db, "author@example.com")

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(recipePage))
	}))
	t.Cleanup(page.Close)

	t.Run("Success", func(t *testing.T) {
		gen := &fakeTextGen{response: `{
			"title": "Shakshuka",
			"category": "breakfast",
			"ingredients": ["eggs", "tomatoes"],
			"steps": ["Simmer sauce", "Poach eggs"],
			"prep_minutes": 25,
			"servings": 2
		}`}
		imp := NewImporter(svc, gen)

		rec, err := imp.ImportFromURL(ctx, author, page.URL)
		if err != nil {
			t.Fatalf("ImportFromURL failed: %v", err)
		}
		if rec.Title != "Shakshuka" || rec.Category != CategoryBreakfast {
			t.Errorf("Unexpected recipe %+v", rec)
		}
		if rec.UserID != author {
			t.Errorf("Imported recipe should belong to the importer, got user %d", rec.UserID)
		}
		if len(rec.Ingredients) != 2 || rec.PrepMinutes != 25 {
			t.Errorf("Extraction fields lost: %+v", rec)
		}
		if !strings.Contains(rec.Instructions, "Poach eggs") {
			t.Errorf("Expected joined steps, got %q", rec.Instructions)
		}

		// Script, style and nav noise must not reach the prompt.
		for _, noise := range []string{"tracking()", "body{}", "Copyright"} {
			if strings.Contains(gen.lastPrompt, noise) {
				t.Errorf("Prompt contains page noise %q", noise)
			}
		}
		if !strings.Contains(gen.lastPrompt, "Shakshuka") {
			t.Error("Prompt should contain the page text")
		}
	})

	t.Run("UnknownCategoryDefaultsToDinner", func(t *testing.T) {
		gen := &fakeTextGen{response: `{"title": "Mystery dish", "category": "brunch"}`}
		imp := NewImporter(svc, gen)

		rec, err := imp.ImportFromURL(ctx, author, page.URL)
		if err != nil {
			t.Fatalf("ImportFromURL failed: %v", err)
		}
		if rec.Category != CategoryDinner {
			t.Errorf("Expected dinner fallback, got %v", rec.Category)
		}
	})

	t.Run("NotConfigured", func(t *testing.T) {
		imp := NewImporter(svc, nil)
		_, err := imp.ImportFromURL(ctx, author, page.URL)
		if !errors.Is(err, apperr.ErrInvalidState) {
			t.Fatalf("Expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("BadURL", func(t *testing.T) {
		imp := NewImporter(svc, &fakeTextGen{})
		_, err := imp.ImportFromURL(ctx, author, "ftp://example.com/recipe")
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("GarbageResponse", func(t *testing.T) {
		imp := NewImporter(svc, &fakeTextGen{response: "here is your recipe!"})
		if _, err := imp.ImportFromURL(ctx, author, page.URL); err == nil {
			t.Fatal("Expected an error for a non-JSON extraction response")
		}
	})
}
