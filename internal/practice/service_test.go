package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/league"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/srs"
	"github.com/example/provalab/pkg/models"
)

var answeredAt = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type env struct {
	svc        *Service
	users      *database.UserRepository
	items      *database.ItemRepository
	reviews    *database.ReviewStateRepository
	flashcards *database.FlashcardRepository
	leagues    *database.LeagueRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
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

	scheduler := srs.NewScheduler(reviews, log)
	engine := league.NewEngine(leagues, nil, league.DefaultConfig(), log)
	svc := NewService(events, users, items, flashcards, scheduler, engine, log)

	return &env{
		svc:        svc,
		users:      users,
		items:      items,
		reviews:    reviews,
		flashcards: flashcards,
		leagues:    leagues,
	}
}

func (e *env) user(t *testing.T, name string) int64 {
	t.Helper()
	u := &models.User{Username: name}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u.ID
}

func (e *env) item(t *testing.T, subject string, srsEnabled bool) int64 {
	t.Helper()
	item := &models.Item{Subject: subject, Statement: "enunciado", Answer: "gabarito", SRSEnabled: srsEnabled}
	require.NoError(t, e.items.Create(context.Background(), item))
	return item.ID
}

func TestRecordAnswerHappyPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.user(t, "gabi")
	itemID := e.item(t, "direito", true)

	result, err := e.svc.RecordAnswer(ctx, AnswerInput{
		UserID:     userID,
		ItemID:     itemID,
		IsCorrect:  true,
		Difficulty: models.DifficultyMedium,
		StudyMode:  models.ModePractice,
		AnsweredAt: answeredAt,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Event.ID)
	assert.Equal(t, 8, result.XPAwarded)
	assert.Equal(t, 1, result.Coins)
	assert.Equal(t, 1, result.Streak)

	// Flagged item creates a schedule.
	require.NotNil(t, result.ReviewState)
	assert.Equal(t, 1, result.ReviewState.Repetitions)
	assert.Equal(t, answeredAt.AddDate(0, 0, 1), result.ReviewState.NextReviewAt)

	// League membership was created and credited.
	m, err := e.leagues.GetMembership(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFerro, m.Tier)
	assert.Equal(t, 8, m.WeeklyXP)
	assert.Equal(t, 8, m.LifetimeXP)

	// Profile side effects.
	user, err := e.users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 8, user.XP)
	assert.Equal(t, 1, user.Coins)
}

func TestRecordAnswerUnflaggedItemSkipsScheduler(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.user(t, "hugo")
	itemID := e.item(t, "direito", false)

	result, err := e.svc.RecordAnswer(ctx, AnswerInput{
		UserID:     userID,
		ItemID:     itemID,
		IsCorrect:  true,
		Difficulty: models.DifficultyEasy,
		StudyMode:  models.ModePractice,
		AnsweredAt: answeredAt,
	})
	require.NoError(t, err)
	assert.Nil(t, result.ReviewState)

	_, err = e.reviews.GetByUserAndItem(ctx, userID, itemID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRecordAnswerReviewModeAlwaysSchedules(t *testing.T) {
	e := newEnv(t)
	userID := e.user(t, "iris")
	itemID := e.item(t, "direito", false)

	result, err := e.svc.RecordAnswer(context.Background(), AnswerInput{
		UserID:     userID,
		ItemID:     itemID,
		IsCorrect:  false,
		Difficulty: models.DifficultyError,
		StudyMode:  models.ModeReview,
		AnsweredAt: answeredAt,
	})
	require.NoError(t, err)
	require.NotNil(t, result.ReviewState)
	assert.Equal(t, 0, result.ReviewState.Repetitions)
	assert.Equal(t, 1, result.ReviewState.IntervalDays)
}

func TestRecordAnswerValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.user(t, "jose")
	itemID := e.item(t, "direito", true)

	tests := []struct {
		name  string
		input AnswerInput
	}{
		{"bad difficulty", AnswerInput{UserID: userID, ItemID: itemID, Difficulty: "nope", StudyMode: models.ModePractice}},
		{"bad mode", AnswerInput{UserID: userID, ItemID: itemID, Difficulty: models.DifficultyEasy, StudyMode: "cramming"}},
		{"unknown user", AnswerInput{UserID: 999, ItemID: itemID, Difficulty: models.DifficultyEasy, StudyMode: models.ModePractice}},
		{"unknown item", AnswerInput{UserID: userID, ItemID: 999, Difficulty: models.DifficultyEasy, StudyMode: models.ModePractice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.RecordAnswer(ctx, tt.input)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestIncorrectAnswerEarnsParticipationPoint(t *testing.T) {
	e := newEnv(t)
	userID := e.user(t, "kaio")
	itemID := e.item(t, "direito", false)

	result, err := e.svc.RecordAnswer(context.Background(), AnswerInput{
		UserID:     userID,
		ItemID:     itemID,
		IsCorrect:  false,
		Difficulty: models.DifficultyError,
		StudyMode:  models.ModePractice,
		AnsweredAt: answeredAt,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.XPAwarded)
	assert.Equal(t, 0, result.Coins)
}

func TestGenerateFlashcardsFromMisses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.user(t, "lara")

	missed := e.item(t, "informatica", false)
	recovered := e.item(t, "portugues", false)

	// recovered: missed first, corrected later. missed: still wrong.
	for i, tc := range []struct {
		item    int64
		correct bool
		at      time.Time
	}{
		{recovered, false, answeredAt},
		{recovered, true, answeredAt.Add(time.Hour)},
		{missed, false, answeredAt.Add(2 * time.Hour)},
	} {
		difficulty := models.DifficultyMedium
		if !tc.correct {
			difficulty = models.DifficultyError
		}
		_, err := e.svc.RecordAnswer(ctx, AnswerInput{
			UserID:     userID,
			ItemID:     tc.item,
			IsCorrect:  tc.correct,
			Difficulty: difficulty,
			StudyMode:  models.ModePractice,
			AnsweredAt: tc.at,
		})
		require.NoError(t, err, "answer %d", i)
	}

	cards, err := e.svc.GenerateFlashcards(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, missed, cards[0].ItemID.Int64)
	assert.Equal(t, "enunciado", cards[0].Front)
	assert.Equal(t, models.MasteryNew, cards[0].MasteryLevel)

	// Generating again creates nothing new.
	again, err := e.svc.GenerateFlashcards(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestAdvanceFlashcard(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	userID := e.user(t, "mia")

	card := &models.Flashcard{UserID: userID, Front: "f", Back: "b"}
	require.NoError(t, e.flashcards.Create(ctx, card))

	updated, err := e.svc.AdvanceFlashcard(ctx, userID, card.ID, true, answeredAt)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CorrectStreak)

	updated, err = e.svc.AdvanceFlashcard(ctx, userID, card.ID, true, answeredAt.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, models.MasteryLearning, updated.MasteryLevel)

	// A missing card surfaces as not-found, not as bad input.
	_, err = e.svc.AdvanceFlashcard(ctx, userID, 9999, true, answeredAt)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
