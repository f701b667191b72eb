package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"recipeshare/internal/apperr"
	"recipeshare/internal/auth"
	"recipeshare/internal/menu"
	"recipeshare/internal/recipe"
)

func weekFlagParam(r *http.Request) (menu.WeekFlag, error) {
	switch chi.URLParam(r, "week") {
	case "current":
		return menu.WeekCurrent, nil
	case "next":
		return menu.WeekNext, nil
	}
	return 0, apperr.InvalidInput("week must be \"current\" or \"next\"")
}

type weekResponse struct {
	Week  string      `json:"week"`
	Slots []menu.Slot `json:"slots"`
}

func weekName(flag menu.WeekFlag) string {
	if flag == menu.WeekNext {
		return "next"
	}
	return "current"
}

func (s *Server) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	flag, err := weekFlagParam(r)
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	slots, err := s.engine.Week(r.Context(), userID, flag)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if slots == nil {
		slots = []menu.Slot{}
	}
	respondJSON(w, http.StatusOK, weekResponse{Week: weekName(flag), Slots: slots})
}

func (s *Server) handleGenerateWeek(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	flag, err := weekFlagParam(r)
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	slots, err := s.engine.GenerateWeek(r.Context(), userID, flag)
	if err != nil {
		if s.metrics != nil {
			s.metrics.MenuGenerated("failed")
		}
		respondError(w, s.log, err)
		return
	}
	if s.metrics != nil {
		s.metrics.MenuGenerated("ok")
	}
	respondJSON(w, http.StatusOK, weekResponse{Week: weekName(flag), Slots: slots})
}

type rerollRequest struct {
	Meal            string `json:"meal" validate:"required"`
	CurrentRecipeID int64  `json:"current_recipe_id"`
}

type rerollResponse struct {
	ItemID   int64 `json:"item_id"`
	RecipeID int64 `json:"recipe_id"`
}

func (s *Server) handleRerollSlot(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	var req rerollRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	meal, ok := recipe.ParseCategory(req.Meal)
	if !ok {
		respondError(w, s.log, apperr.InvalidInput("unknown meal %q", req.Meal))
		return
	}

	picked, err := s.engine.GenerateOneSlot(r.Context(), userID, menu.SlotRequest{
		Meal:            meal,
		ItemID:          itemID,
		CurrentRecipeID: req.CurrentRecipeID,
	})
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, rerollResponse{ItemID: itemID, RecipeID: picked})
}

func (s *Server) handleListExclusions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	ids, err := s.excluded.List(r.Context(), userID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	respondJSON(w, http.StatusOK, map[string][]int64{"recipe_ids": ids})
}

func (s *Server) handleAddExclusion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	recipeID, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if _, err := s.recipes.Get(r.Context(), recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.excluded.Add(r.Context(), userID, recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveExclusion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	recipeID, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.excluded.Remove(r.Context(), userID, recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
