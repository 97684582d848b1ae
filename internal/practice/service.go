// Package practice orchestrates one answered question: append the event,
// advance the review schedule for flagged items, and apply xp, coin and
// streak side effects.
package practice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/league"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/internal/mastery"
	"github.com/example/provalab/internal/srs"
	"github.com/example/provalab/pkg/models"
)

// XP awarded per correct answer by difficulty; an incorrect answer still
// earns a participation point. Coins are a fifth of xp.
const (
	xpEasy          = 5
	xpMedium        = 8
	xpHard          = 12
	xpParticipation = 1
	coinsDivisor    = 5
)

// Service wires the engines behind the answer-recording use case.
type Service struct {
	events     *database.AnswerEventRepository
	users      *database.UserRepository
	items      *database.ItemRepository
	flashcards *database.FlashcardRepository
	scheduler  *srs.Scheduler
	leagues    *league.Engine
	log        *logger.Logger
}

// NewService creates the practice service.
func NewService(
	events *database.AnswerEventRepository,
	users *database.UserRepository,
	items *database.ItemRepository,
	flashcards *database.FlashcardRepository,
	scheduler *srs.Scheduler,
	leagues *league.Engine,
	log *logger.Logger,
) *Service {
	return &Service{
		events:     events,
		users:      users,
		items:      items,
		flashcards: flashcards,
		scheduler:  scheduler,
		leagues:    leagues,
		log:        log.With("component", "practice"),
	}
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	UserID     int64             `json:"user_id"`
	ItemID     int64             `json:"item_id"`
	IsCorrect  bool              `json:"is_correct"`
	Difficulty models.Difficulty `json:"difficulty"`
	StudyMode  models.StudyMode  `json:"study_mode"`
	AnsweredAt time.Time         `json:"answered_at"`
}

// AnswerResult is what the caller gets back after an answer is processed.
type AnswerResult struct {
	Event       models.AnswerEvent  `json:"event"`
	ReviewState *models.ReviewState `json:"review_state,omitempty"`
	XPAwarded   int                 `json:"xp_awarded"`
	Coins       int                 `json:"coins_awarded"`
	Streak      int                 `json:"streak"`
}

// RecordAnswer validates and processes one answer. Validation failures
// reject before any state is written; a store failure after the event is
// appended surfaces as retryable so the client never sees false success.
func (s *Service) RecordAnswer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	if !input.Difficulty.Valid() {
		return nil, apperr.Validationf("unknown difficulty %q", input.Difficulty)
	}
	if !input.StudyMode.Valid() {
		return nil, apperr.Validationf("unknown study mode %q", input.StudyMode)
	}
	if input.AnsweredAt.IsZero() {
		input.AnsweredAt = time.Now().UTC()
	}
	if _, err := s.users.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validationf("unknown user %d", input.UserID)
		}
		return nil, err
	}
	item, err := s.items.GetByID(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validationf("unknown item %d", input.ItemID)
		}
		return nil, err
	}

	event := models.AnswerEvent{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		ItemID:     input.ItemID,
		IsCorrect:  input.IsCorrect,
		Difficulty: input.Difficulty,
		StudyMode:  input.StudyMode,
		AnsweredAt: input.AnsweredAt,
	}
	if err := s.events.Append(ctx, &event); err != nil {
		return nil, err
	}

	result := &AnswerResult{Event: event}

	if item.SRSEnabled || input.StudyMode == models.ModeReview {
		state, err := s.scheduler.RecordReview(ctx, input.UserID, input.ItemID, input.Difficulty, input.AnsweredAt)
		if err != nil {
			return nil, err
		}
		result.ReviewState = state
	}

	xp := xpFor(input.IsCorrect, input.Difficulty)
	coins := xp / coinsDivisor
	user, err := s.users.ApplyAnswerRewards(ctx, input.UserID, xp, coins, input.AnsweredAt)
	if err != nil {
		return nil, err
	}
	if err := s.leagues.ApplyXPDelta(ctx, input.UserID, xp); err != nil {
		return nil, err
	}

	result.XPAwarded = xp
	result.Coins = coins
	result.Streak = user.Streak
	return result, nil
}

// AdvanceFlashcard applies one remembered/forgot review to a flashcard's
// mastery state.
func (s *Service) AdvanceFlashcard(ctx context.Context, userID, cardID int64, remembered bool, at time.Time) (*models.Flashcard, error) {
	card, err := s.flashcards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	next := mastery.Advance(*card, remembered, at)
	if err := s.flashcards.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// GenerateFlashcards creates cards from the user's recently missed catalog
// items that have no card yet, and returns them.
func (s *Service) GenerateFlashcards(ctx context.Context, userID int64, limit int) ([]models.Flashcard, error) {
	if limit < 1 {
		limit = 10
	}
	missed, err := s.flashcards.MissedItemsWithoutCards(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	cards := make([]models.Flashcard, 0, len(missed))
	for _, item := range missed {
		card := models.Flashcard{
			UserID: userID,
			Front:  item.Statement,
			Back:   item.Answer,
		}
		card.ItemID.Int64 = item.ID
		card.ItemID.Valid = true
		if err := s.flashcards.Create(ctx, &card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	s.log.Info("flashcards generated", "user_id", userID, "count", len(cards))
	return cards, nil
}

func xpFor(correct bool, difficulty models.Difficulty) int {
	if !correct {
		return xpParticipation
	}
	switch difficulty {
	case models.DifficultyEasy:
		return xpEasy
	case models.DifficultyMedium:
		return xpMedium
	case models.DifficultyHard:
		return xpHard
	default:
		return xpParticipation
	}
}
