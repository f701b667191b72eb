// Package api exposes the application over a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"recipeshare/internal/auth"
	"recipeshare/internal/comment"
	"recipeshare/internal/favorite"
	"recipeshare/internal/menu"
	"recipeshare/internal/metrics"
	"recipeshare/internal/recipe"
	"recipeshare/internal/shopping"
	"recipeshare/internal/user"
)

// Server holds the services the handlers dispatch into.
type Server struct {
	users     *user.Service
	auth      *auth.Service
	recipes   *recipe.Service
	importer  *recipe.Importer
	comments  *comment.Service
	favorites *favorite.Service
	shopping  *shopping.Service
	engine    *menu.Engine
	excluded  *menu.DontRecommendRepository
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewServer creates a Server wired to the given services.
func NewServer(
	users *user.Service,
	authSvc *auth.Service,
	recipes *recipe.Service,
	importer *recipe.Importer,
	comments *comment.Service,
	favorites *favorite.Service,
	shoppingSvc *shopping.Service,
	engine *menu.Engine,
	excluded *menu.DontRecommendRepository,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Server {
	return &Server{
		users:     users,
		auth:      authSvc,
		recipes:   recipes,
		importer:  importer,
		comments:  comments,
		favorites: favorites,
		shopping:  shoppingSvc,
		engine:    engine,
		excluded:  excluded,
		metrics:   m,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// Router builds the full route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/auth/verify", s.handleVerifyEmail)

		r.Get("/recipes", s.handleListRecipes)
		r.Get("/recipes/{recipeID}", s.handleGetRecipe)
		r.Get("/recipes/{recipeID}/comments", s.handleListComments)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Post("/auth/logout", s.handleLogout)

			r.Get("/users/me", s.handleCurrentUser)
			r.Get("/users/me/preferences", s.handleGetPreferences)
			r.Put("/users/me/preferences", s.handleUpdatePreferences)
			r.Put("/users/me/telegram", s.handleLinkTelegram)

			r.Post("/recipes", s.handleCreateRecipe)
			r.Put("/recipes/{recipeID}", s.handleUpdateRecipe)
			r.Delete("/recipes/{recipeID}", s.handleDeleteRecipe)
			r.Post("/recipes/import", s.handleImportRecipe)

			r.Post("/recipes/{recipeID}/comments", s.handleAddComment)
			r.Delete("/comments/{commentID}", s.handleDeleteComment)

			r.Get("/favorites", s.handleListFavoriteGroups)
			r.Post("/favorites", s.handleCreateFavoriteGroup)
			r.Delete("/favorites/{groupID}", s.handleDeleteFavoriteGroup)
			r.Put("/favorites/{groupID}/recipes/{recipeID}", s.handleAddFavorite)
			r.Delete("/favorites/{groupID}/recipes/{recipeID}", s.handleRemoveFavorite)

			r.Get("/shopping", s.handleListShopping)
			r.Post("/shopping", s.handleAddShoppingItem)
			r.Delete("/shopping/checked", s.handleClearChecked)
			r.Patch("/shopping/{itemID}", s.handleSetChecked)
			r.Delete("/shopping/{itemID}", s.handleDeleteShoppingItem)

			r.Get("/menu/{week}", s.handleGetWeek)
			r.Post("/menu/{week}/generate", s.handleGenerateWeek)
			r.Post("/menu/items/{itemID}/reroll", s.handleRerollSlot)

			r.Get("/menu/exclusions", s.handleListExclusions)
			r.Put("/menu/exclusions/{recipeID}", s.handleAddExclusion)
			r.Delete("/menu/exclusions/{recipeID}", s.handleRemoveExclusion)
		})
	})

	return r
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
