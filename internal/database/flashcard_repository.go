package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/pkg/models"
)

// FlashcardRepository handles user-owned flashcards.
type FlashcardRepository struct {
	db *sqlx.DB
}

// NewFlashcardRepository creates a new repository instance.
func NewFlashcardRepository(db *sqlx.DB) *FlashcardRepository {
	return &FlashcardRepository{db: db}
}

// GetByID returns a flashcard owned by the user, or apperr.ErrNotFound.
func (r *FlashcardRepository) GetByID(ctx context.Context, userID, cardID int64) (*models.Flashcard, error) {
	query := r.db.Rebind(`SELECT * FROM flashcards WHERE id = ? AND user_id = ?`)
	var card models.Flashcard
	err := r.db.GetContext(ctx, &card, query, cardID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("get flashcard", err)
	}
	return &card, nil
}

// ListByUser returns all of a user's flashcards, due first.
func (r *FlashcardRepository) ListByUser(ctx context.Context, userID int64) ([]models.Flashcard, error) {
	query := r.db.Rebind(`
		SELECT * FROM flashcards
		WHERE user_id = ?
		ORDER BY next_review_at ASC, id ASC
	`)
	var cards []models.Flashcard
	if err := r.db.SelectContext(ctx, &cards, query, userID); err != nil {
		return nil, apperr.Unavailable("list flashcards", err)
	}
	return cards, nil
}

// Create inserts a new flashcard.
func (r *FlashcardRepository) Create(ctx context.Context, card *models.Flashcard) error {
	if card.MasteryLevel == "" {
		card.MasteryLevel = models.MasteryNew
	}
	if card.NextReviewAt.IsZero() {
		card.NextReviewAt = time.Now().UTC()
	}
	insert := `
		INSERT INTO flashcards (user_id, item_id, front, back, mastery_level, correct_streak, next_review_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		card.UserID,
		card.ItemID,
		card.Front,
		card.Back,
		card.MasteryLevel,
		card.CorrectStreak,
		card.NextReviewAt,
	}
	if r.db.DriverName() == "postgres" {
		query := r.db.Rebind(insert + " RETURNING id")
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&card.ID); err != nil {
			return apperr.Unavailable("create flashcard", err)
		}
		return nil
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(insert), args...)
	if err != nil {
		return apperr.Unavailable("create flashcard", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return apperr.Unavailable("create flashcard", err)
	}
	card.ID = id
	return nil
}

// Update writes back the mastery fields after a review.
func (r *FlashcardRepository) Update(ctx context.Context, card *models.Flashcard) error {
	query := r.db.Rebind(`
		UPDATE flashcards SET
			mastery_level = ?,
			correct_streak = ?,
			next_review_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		card.MasteryLevel,
		card.CorrectStreak,
		card.NextReviewAt,
		card.ID,
		card.UserID,
	)
	if err != nil {
		return apperr.Unavailable("update flashcard", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Unavailable("update flashcard", err)
	}
	if rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// MissedItemsWithoutCards returns catalog items whose most recent answer by
// the user was incorrect and for which no flashcard exists yet. Source for
// bulk flashcard generation.
func (r *FlashcardRepository) MissedItemsWithoutCards(ctx context.Context, userID int64, limit int) ([]models.Item, error) {
	query := r.db.Rebind(`
		SELECT i.* FROM items i
		JOIN answer_events e ON e.item_id = i.id AND e.user_id = ?
		WHERE e.answered_at = (
			SELECT MAX(e2.answered_at) FROM answer_events e2
			WHERE e2.user_id = ? AND e2.item_id = i.id
		)
		AND NOT e.is_correct
		AND NOT EXISTS (
			SELECT 1 FROM flashcards f WHERE f.user_id = ? AND f.item_id = i.id
		)
		GROUP BY i.id
		ORDER BY i.id ASC
		LIMIT ?
	`)
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, userID, userID, userID, limit); err != nil {
		return nil, apperr.Unavailable("missed items", err)
	}
	return items, nil
}
