package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/excel"
	"github.com/example/provalab/internal/handlers"
	"github.com/example/provalab/internal/league"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/practice"
	"github.com/example/provalab/internal/progress"
	"github.com/example/provalab/internal/server"
	"github.com/example/provalab/internal/srs"
	"github.com/example/provalab/pkg/models"
)

type testAPI struct {
	router *gin.Engine
	userID int64
	itemID int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	events := database.NewAnswerEventRepository(db)
	users := database.NewUserRepository(db)
	items := database.NewItemRepository(db)
	flashcards := database.NewFlashcardRepository(db)
	reviews := database.NewReviewStateRepository(db)
	leagues := database.NewLeagueRepository(db)

	srsScheduler := srs.NewScheduler(reviews, log)
	engine := league.NewEngine(leagues, nil, league.DefaultConfig(), log)
	svc := practice.NewService(events, users, items, flashcards, srsScheduler, engine, log)
	aggregator := progress.NewAggregator(events, reviews, log)

	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:       []string{"http://localhost:3000"},
		HealthHandler:      handlers.NewHealthHandler(db),
		AnswerHandler:      handlers.NewAnswerHandler(svc, log),
		ReviewHandler:      handlers.NewReviewHandler(srsScheduler, log),
		LeaderboardHandler: handlers.NewLeaderboardHandler(engine, 5, log),
		ProgressHandler:    handlers.NewProgressHandler(aggregator, log),
		FlashcardHandler:   handlers.NewFlashcardHandler(svc, flashcards, excel.NewImporter(flashcards), log),
	})

	ctx := context.Background()
	user := &models.User{Username: "aluna"}
	require.NoError(t, users.Create(ctx, user))
	item := &models.Item{Subject: "constitucional", Statement: "?", Answer: "a", SRSEnabled: true}
	require.NoError(t, items.Create(ctx, item))

	return &testAPI{router: router, userID: user.ID, itemID: item.ID}
}

func (api *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitAnswer(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/answers", gin.H{
		"user_id":     api.userID,
		"item_id":     api.itemID,
		"is_correct":  true,
		"difficulty":  "medium",
		"study_mode":  "review",
		"answered_at": time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result practice.AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 8, result.XPAwarded)
	require.NotNil(t, result.ReviewState)
	assert.Equal(t, 1, result.ReviewState.Repetitions)
}

func TestSubmitAnswerValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/answers", gin.H{
		"user_id":    api.userID,
		"item_id":    api.itemID,
		"is_correct": true,
		"difficulty": "impossible",
		"study_mode": "review",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var envelope handlers.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "validation", envelope.Error.Code)
}

func TestSubmitAnswerUnknownUser(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/answers", gin.H{
		"user_id":    int64(9999),
		"item_id":    api.itemID,
		"is_correct": true,
		"difficulty": "easy",
		"study_mode": "practice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDueReviews(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/answers", gin.H{
		"user_id":     api.userID,
		"item_id":     api.itemID,
		"is_correct":  false,
		"difficulty":  "error",
		"study_mode":  "review",
		"answered_at": time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A failed review schedules the item one day out.
	path := fmt.Sprintf("/api/users/%d/reviews/due?as_of=%s", api.userID, "2026-03-04T00:00:00Z")
	w = api.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Count)
}

func TestGetWindowedLeaderboard(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/answers", gin.H{
		"user_id":    api.userID,
		"item_id":    api.itemID,
		"is_correct": true,
		"difficulty": "easy",
		"study_mode": "practice",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/leaderboard", api.userID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Tier    models.Tier          `json:"tier"`
		Entries []models.LeagueEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, models.TierFerro, payload.Tier)
	require.Len(t, payload.Entries, 1)
	assert.Equal(t, 1, payload.Entries[0].Rank)
}

func TestGetWindowedLeaderboardUnknownUser(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/users/9999/leaderboard", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var envelope handlers.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "validation", envelope.Error.Code)
}

func TestGetTierStandingsRejectsUnknownTier(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/leagues/platina", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProgressSummary(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/progress", api.userID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.ProgressSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 50, summary.Percentile)
}

func TestFlashcardLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/flashcards", api.userID), gin.H{
		"front": "Prazo do HC?",
		"back":  "Não há prazo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var card models.Flashcard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, models.MasteryNew, card.MasteryLevel)

	w = api.do(t, http.MethodPost,
		fmt.Sprintf("/api/users/%d/flashcards/%d/review", api.userID, card.ID),
		gin.H{"remembered": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/flashcards", api.userID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Flashcards []models.Flashcard `json:"flashcards"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.Flashcards, 1)
	assert.Equal(t, 1, payload.Flashcards[0].CorrectStreak)
}

func TestReviewFlashcardNotFound(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost,
		fmt.Sprintf("/api/users/%d/flashcards/123/review", api.userID),
		gin.H{"remembered": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
