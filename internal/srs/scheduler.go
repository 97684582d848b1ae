package srs

import (
	"context"
	"errors"
	"time"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/pkg/models"
)

// ReviewStore is the persistence the scheduler needs. Implemented by
// database.ReviewStateRepository.
type ReviewStore interface {
	GetByUserAndItem(ctx context.Context, userID, itemID int64) (*models.ReviewState, error)
	Create(ctx context.Context, state *models.ReviewState) error
	UpdateVersioned(ctx context.Context, state *models.ReviewState) error
	DueBefore(ctx context.Context, userID int64, asOf time.Time) ([]models.ReviewState, error)
}

// Scheduler maintains one ReviewState per (user, item) and answers the
// "what is due" question.
type Scheduler struct {
	store ReviewStore
	log   *logger.Logger
}

// NewScheduler creates a scheduler backed by the given store.
func NewScheduler(store ReviewStore, log *logger.Logger) *Scheduler {
	return &Scheduler{
		store: store,
		log:   log.With("component", "srs"),
	}
}

// RecordReview applies one answered review to the item's schedule and
// persists the result. The first review of an item creates its state.
// A version conflict is retried once against fresh state; a second
// conflict surfaces apperr.ErrStale to the caller.
func (s *Scheduler) RecordReview(ctx context.Context, userID, itemID int64, difficulty models.Difficulty, at time.Time) (*models.ReviewState, error) {
	if !difficulty.Valid() {
		return nil, apperr.Validationf("unknown difficulty %q", difficulty)
	}

	for attempt := 0; ; attempt++ {
		state, err := s.store.GetByUserAndItem(ctx, userID, itemID)
		if errors.Is(err, apperr.ErrNotFound) {
			fresh := NewState(userID, itemID)
			next := Apply(fresh, difficulty, at)
			if err := s.store.Create(ctx, &next); err != nil {
				return nil, err
			}
			return &next, nil
		}
		if err != nil {
			return nil, err
		}

		// A late-arriving answer must not rewind a schedule that a
		// newer answer already advanced.
		if at.Before(state.LastReviewedAt) {
			s.log.Warn("out-of-order review ignored",
				"user_id", userID, "item_id", itemID,
				"answered_at", at, "last_reviewed_at", state.LastReviewedAt)
			return state, nil
		}

		next := Apply(*state, difficulty, at)
		err = s.store.UpdateVersioned(ctx, &next)
		if err == nil {
			return &next, nil
		}
		if errors.Is(err, apperr.ErrStale) && attempt == 0 {
			continue
		}
		return nil, err
	}
}

// DueItems returns every review state due as of asOf, oldest-overdue
// first, item id breaking ties.
func (s *Scheduler) DueItems(ctx context.Context, userID int64, asOf time.Time) ([]models.ReviewState, error) {
	return s.store.DueBefore(ctx, userID, asOf)
}
