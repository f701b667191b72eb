package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recipeshare/internal/apperr"
	"recipeshare/internal/auth"
	"recipeshare/internal/recipe"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("%s must be a positive integer", name)
	}
	return id, nil
}

type recipeRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Category     string   `json:"category" validate:"required"`
	DietID       *int64   `json:"diet_id"`
	CostID       *int64   `json:"cost_id"`
	DifficultyID *int64   `json:"difficulty_id"`
	ImageURL     string   `json:"image_url" validate:"omitempty,url"`
	PrepMinutes  int      `json:"prep_minutes" validate:"min=0"`
	Servings     int      `json:"servings" validate:"min=0"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	AllergyIDs   []int64  `json:"allergy_ids"`
}

func (req *recipeRequest) toRecipe() (recipe.Recipe, error) {
	cat, ok := recipe.ParseCategory(req.Category)
	if !ok {
		return recipe.Recipe{}, apperr.InvalidInput("unknown category %q", req.Category)
	}
	return recipe.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		Category:     cat,
		DietID:       req.DietID,
		CostID:       req.CostID,
		DifficultyID: req.DifficultyID,
		ImageURL:     req.ImageURL,
		PrepMinutes:  req.PrepMinutes,
		Servings:     req.Servings,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		AllergyIDs:   req.AllergyIDs,
	}, nil
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req recipeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	rec, err := req.toRecipe()
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	created, err := s.recipes.Create(r.Context(), userID, rec)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	rec, err := s.recipes.Get(r.Context(), id)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	var req recipeRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	rec, err := req.toRecipe()
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	updated, err := s.recipes.Update(r.Context(), userID, id, rec)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.recipes.Delete(r.Context(), userID, id); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type recipeListResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := recipe.ListFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}

	if v := q.Get("category"); v != "" {
		cat, ok := recipe.ParseCategory(v)
		if !ok {
			respondError(w, s.log, apperr.InvalidInput("unknown category %q", v))
			return
		}
		f.Category = &cat
	}
	if v := q.Get("diet_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, s.log, apperr.InvalidInput("diet_id must be an integer"))
			return
		}
		f.DietID = &id
	}
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, s.log, apperr.InvalidInput("user_id must be an integer"))
			return
		}
		f.UserID = &id
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	recipes, total, err := s.recipes.List(r.Context(), f)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	respondJSON(w, http.StatusOK, recipeListResponse{Recipes: recipes, Total: total, Page: page})
}

type importRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) handleImportRecipe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req importRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}

	rec, err := s.importer.ImportFromURL(r.Context(), userID, req.URL)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}
