package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/cache"
	"github.com/example/provalab/internal/config"
	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/excel"
	"github.com/example/provalab/internal/handlers"
	"github.com/example/provalab/internal/league"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/notify"
	"github.com/example/provalab/internal/practice"
	"github.com/example/provalab/internal/progress"
	"github.com/example/provalab/internal/scheduler"
	"github.com/example/provalab/internal/server"
	"github.com/example/provalab/internal/srs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		appLog.Fatal("failed to connect to database", "driver", cfg.DBDriver, "error", err)
	}
	defer db.Close()

	events := database.NewAnswerEventRepository(db)
	reviews := database.NewReviewStateRepository(db)
	users := database.NewUserRepository(db)
	items := database.NewItemRepository(db)
	flashcards := database.NewFlashcardRepository(db)
	leagues := database.NewLeagueRepository(db)

	var standingsCache league.StandingsCache
	if cfg.RedisAddr != "" {
		lb, err := cache.NewLeaderboard(cfg.RedisAddr, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, serving standings without cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer lb.Close()
			standingsCache = lb
		}
	}

	leagueCfg := league.Config{
		PromoteCount:  cfg.PromoteCount,
		RelegateCount: cfg.RelegateCount,
		MinTierSize:   cfg.MinTierSize,
	}
	leagueEngine := league.NewEngine(leagues, standingsCache, leagueCfg, appLog)
	srsScheduler := srs.NewScheduler(reviews, appLog)
	practiceSvc := practice.NewService(events, users, items, flashcards, srsScheduler, leagueEngine, appLog)
	aggregator := progress.NewAggregator(events, reviews, appLog)
	importer := excel.NewImporter(flashcards)

	var notifier scheduler.Notifier
	if cfg.TelegramToken != "" {
		tn, err := notify.NewTelegramNotifier(cfg.TelegramToken, appLog)
		if err != nil {
			appLog.Warn("telegram unavailable, reminders disabled", "error", err)
		} else {
			notifier = tn
		}
	}

	jobs := scheduler.New(appLog, users, reviews, leagueEngine, notifier)
	jobs.Start()
	defer jobs.Stop()

	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:       cfg.CORSOrigins,
		HealthHandler:      handlers.NewHealthHandler(db),
		AnswerHandler:      handlers.NewAnswerHandler(practiceSvc, appLog),
		ReviewHandler:      handlers.NewReviewHandler(srsScheduler, appLog),
		LeaderboardHandler: handlers.NewLeaderboardHandler(leagueEngine, cfg.WindowSize, appLog),
		ProgressHandler:    handlers.NewProgressHandler(aggregator, appLog),
		FlashcardHandler:   handlers.NewFlashcardHandler(practiceSvc, flashcards, importer, appLog),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("http server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown error", "error", err)
	}
}
