package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"recipeshare/internal/api"
	"recipeshare/internal/auth"
	"recipeshare/internal/comment"
	"recipeshare/internal/config"
	"recipeshare/internal/database"
	"recipeshare/internal/favorite"
	"recipeshare/internal/llm"
	"recipeshare/internal/logging"
	"recipeshare/internal/menu"
	"recipeshare/internal/metrics"
	"recipeshare/internal/notify"
	"recipeshare/internal/recipe"
	"recipeshare/internal/shopping"
	"recipeshare/internal/user"
)

func main() {
	// Missing .env is fine in deployed environments where real env vars
	// are set.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		bootLog := logging.New("info")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	userRepo := user.NewRepository(db.SQL)
	userSvc := user.NewService(userRepo, cfg.TokenSecret, cfg.BaseURL, log)

	sessionRepo := auth.NewSessionRepository(db.SQL)
	authSvc := auth.NewService(sessionRepo, userSvc, cfg.SessionTTL, log)
	authSvc.StartJanitor(ctx)

	recipeRepo := recipe.NewRepository(db.SQL)
	recipeSvc := recipe.NewService(recipeRepo)

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gen, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		if closer, ok := gen.(llm.Closer); ok {
			defer closer.Close()
		}
		textGen = gen
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, recipe import disabled")
	}
	importer := recipe.NewImporter(recipeSvc, textGen)

	commentSvc := comment.NewService(comment.NewRepository(db.SQL))
	favoriteSvc := favorite.NewService(favorite.NewRepository(db.SQL))
	shoppingSvc := shopping.NewService(shopping.NewRepository(db.SQL))

	excluded := menu.NewDontRecommendRepository(db.SQL)
	gateway := menu.NewSQLPreferenceGateway(db.SQL, excluded)
	menuRepo := menu.NewRepository(db.SQL)

	var notifier menu.Notifier
	if cfg.TelegramBotToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, userRepo, recipeRepo, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Telegram notifier")
		}
		notifier = tn
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, menu notifications disabled")
	}

	engine := menu.NewEngine(gateway, menuRepo, userRepo, notifier, nil, log)

	scheduler, err := menu.NewScheduler(engine, cfg.RolloverSchedule, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create rollover scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	m := metrics.New()
	server := api.NewServer(
		userSvc, authSvc, recipeSvc, importer,
		commentSvc, favoriteSvc, shoppingSvc,
		engine, excluded, m, log,
	)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
