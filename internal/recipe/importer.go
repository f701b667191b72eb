package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"recipeshare/internal/apperr"
	"recipeshare/internal/llm"
)

// Importer fetches an external recipe page and turns it into a draft recipe
// owned by the importing user.
type Importer struct {
	service    *Service
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// extractedRecipe is the shape the extraction prompt asks for.
type extractedRecipe struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	PrepMinutes int      `json:"prep_minutes"`
	Servings    int      `json:"servings"`
}

// NewImporter creates a new Importer.
func NewImporter(service *Service, textGen llm.TextGenerator) *Importer {
	return &Importer{
		service:    service,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ImportFromURL fetches the page, extracts a structured recipe and saves it
// for the user. The result is a normal recipe the user can edit afterwards.
func (i *Importer) ImportFromURL(ctx context.Context, userID int64, url string) (*Recipe, error) {
	if i.textGen == nil {
		return nil, apperr.InvalidState("recipe import is not configured")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, apperr.InvalidInput("url must start with http:// or https://")
	}

	content, err := i.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "category": "one of: breakfast, lunch, dinner, dessert",
  "ingredients": ["item 1", "item 2", ...],
  "steps": ["Step 1 description", "Step 2 description", ...],
  "prep_minutes": 30,
  "servings": 4
}

Page Content:
%s
`, content)

	llmResponse, err := i.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted extractedRecipe
	if err := json.Unmarshal([]byte(llmResponse), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, llmResponse)
	}

	category, ok := ParseCategory(extracted.Category)
	if !ok {
		category = CategoryDinner
	}

	rec := Recipe{
		Title:        extracted.Title,
		Description:  fmt.Sprintf("Imported from %s", url),
		Category:     category,
		Ingredients:  extracted.Ingredients,
		Instructions: strings.Join(extracted.Steps, "\n"),
		PrepMinutes:  extracted.PrepMinutes,
		Servings:     extracted.Servings,
	}
	return i.service.Create(ctx, userID, rec)
}

func (i *Importer) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}
