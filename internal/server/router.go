package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/provalab/internal/handlers"
)

type RouterConfig struct {
	AllowOrigins []string

	HealthHandler      *handlers.HealthHandler
	AnswerHandler      *handlers.AnswerHandler
	ReviewHandler      *handlers.ReviewHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	ProgressHandler    *handlers.ProgressHandler
	FlashcardHandler   *handlers.FlashcardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/answers", cfg.AnswerHandler.SubmitAnswer)

		api.GET("/leagues/:tier", cfg.LeaderboardHandler.GetTierStandings)

		users := api.Group("/users/:id")
		{
			users.GET("/reviews/due", cfg.ReviewHandler.ListDueReviews)
			users.GET("/leaderboard", cfg.LeaderboardHandler.GetWindowedView)
			users.GET("/progress", cfg.ProgressHandler.GetSummary)
			users.GET("/progress/trend", cfg.ProgressHandler.GetDailyTrend)

			users.GET("/flashcards", cfg.FlashcardHandler.ListFlashcards)
			users.POST("/flashcards", cfg.FlashcardHandler.CreateFlashcard)
			users.POST("/flashcards/:cardID/review", cfg.FlashcardHandler.ReviewFlashcard)
			users.POST("/flashcards/generate", cfg.FlashcardHandler.GenerateFlashcards)
			users.POST("/flashcards/import", cfg.FlashcardHandler.ImportFlashcards)
		}
	}

	return router
}
