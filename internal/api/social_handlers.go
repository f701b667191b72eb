package api

import (
	"net/http"

	"recipeshare/internal/auth"
	"recipeshare/internal/comment"
	"recipeshare/internal/favorite"
	"recipeshare/internal/shopping"
)

type addCommentRequest struct {
	Body   string `json:"body" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	recipeID, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	var req addCommentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}

	// Commenting on a missing recipe should 404, not trip a constraint.
	if _, err := s.recipes.Get(r.Context(), recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}

	c, err := s.comments.Add(r.Context(), userID, recipeID, req.Body, req.Rating)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	recipeID, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	comments, err := s.comments.ListForRecipe(r.Context(), recipeID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if comments == nil {
		comments = []comment.Comment{}
	}
	respondJSON(w, http.StatusOK, comments)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	commentID, err := pathID(r, "commentID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.comments.Delete(r.Context(), userID, commentID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type createGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleCreateFavoriteGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req createGroupRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	g, err := s.favorites.CreateGroup(r.Context(), userID, req.Name)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) handleListFavoriteGroups(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	groups, err := s.favorites.ListGroups(r.Context(), userID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if groups == nil {
		groups = []favorite.Group{}
	}
	respondJSON(w, http.StatusOK, groups)
}

func (s *Server) handleDeleteFavoriteGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.favorites.DeleteGroup(r.Context(), userID, groupID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	recipeID, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if _, err := s.recipes.Get(r.Context(), recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.favorites.AddRecipe(r.Context(), userID, groupID, recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	recipeID, err := pathID(r, "recipeID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.favorites.RemoveRecipe(r.Context(), userID, groupID, recipeID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type addShoppingItemRequest struct {
	Label    string `json:"label" validate:"required"`
	RecipeID *int64 `json:"recipe_id"`
}

func (s *Server) handleAddShoppingItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req addShoppingItemRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	item, err := s.shopping.Add(r.Context(), userID, req.Label, req.RecipeID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListShopping(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	items, err := s.shopping.List(r.Context(), userID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if items == nil {
		items = []shopping.Item{}
	}
	respondJSON(w, http.StatusOK, items)
}

type setCheckedRequest struct {
	Checked bool `json:"checked"`
}

func (s *Server) handleSetChecked(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	var req setCheckedRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.shopping.SetChecked(r.Context(), userID, itemID, req.Checked); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteShoppingItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	itemID, err := pathID(r, "itemID")
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.shopping.Delete(r.Context(), userID, itemID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearChecked(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	removed, err := s.shopping.ClearChecked(r.Context(), userID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
