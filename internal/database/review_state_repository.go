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

// ReviewStateRepository handles the one-row-per-(user,item) scheduling
// records. Updates go through an optimistic version check so concurrent
// answers for the same item cannot regress the schedule.
type ReviewStateRepository struct {
	db *sqlx.DB
}

// NewReviewStateRepository creates a new repository instance.
func NewReviewStateRepository(db *sqlx.DB) *ReviewStateRepository {
	return &ReviewStateRepository{db: db}
}

// GetByUserAndItem returns the state for a specific user and item, or
// apperr.ErrNotFound when the item has never been reviewed.
func (r *ReviewStateRepository) GetByUserAndItem(ctx context.Context, userID, itemID int64) (*models.ReviewState, error) {
	query := r.db.Rebind(`SELECT * FROM review_states WHERE user_id = ? AND item_id = ?`)
	var state models.ReviewState
	err := r.db.GetContext(ctx, &state, query, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("get review state", err)
	}
	return &state, nil
}

// Create inserts a new state row at version 0.
func (r *ReviewStateRepository) Create(ctx context.Context, state *models.ReviewState) error {
	args := []interface{}{
		state.UserID,
		state.ItemID,
		state.LastDifficulty,
		state.IntervalDays,
		state.EaseFactor,
		state.Repetitions,
		state.LastReviewedAt,
		state.NextReviewAt,
	}
	insert := `
		INSERT INTO review_states (
			user_id, item_id, last_difficulty, interval_days, ease_factor,
			repetitions, last_reviewed_at, next_review_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`
	// SQLite has no usable RETURNING through this driver; fall back to
	// LastInsertId there.
	if r.db.DriverName() == "postgres" {
		query := r.db.Rebind(insert + " RETURNING id")
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&state.ID); err != nil {
			return apperr.Unavailable("create review state", err)
		}
	} else {
		result, err := r.db.ExecContext(ctx, r.db.Rebind(insert), args...)
		if err != nil {
			return apperr.Unavailable("create review state", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return apperr.Unavailable("create review state", err)
		}
		state.ID = id
	}
	state.Version = 0
	return nil
}

// UpdateVersioned writes the state back only if nobody else has written it
// since it was read. A lost race returns apperr.ErrStale; the caller should
// re-fetch and retry once.
func (r *ReviewStateRepository) UpdateVersioned(ctx context.Context, state *models.ReviewState) error {
	query := r.db.Rebind(`
		UPDATE review_states SET
			last_difficulty = ?,
			interval_days = ?,
			ease_factor = ?,
			repetitions = ?,
			last_reviewed_at = ?,
			next_review_at = ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		state.LastDifficulty,
		state.IntervalDays,
		state.EaseFactor,
		state.Repetitions,
		state.LastReviewedAt,
		state.NextReviewAt,
		state.ID,
		state.Version,
	)
	if err != nil {
		return apperr.Unavailable("update review state", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Unavailable("update review state", err)
	}
	if rows == 0 {
		return apperr.ErrStale
	}
	state.Version++
	return nil
}

// DueBefore returns all states with next_review_at <= asOf, oldest-overdue
// first, ties broken by item_id for determinism.
func (r *ReviewStateRepository) DueBefore(ctx context.Context, userID int64, asOf time.Time) ([]models.ReviewState, error) {
	query := r.db.Rebind(`
		SELECT * FROM review_states
		WHERE user_id = ? AND next_review_at <= ?
		ORDER BY next_review_at ASC, item_id ASC
	`)
	var states []models.ReviewState
	if err := r.db.SelectContext(ctx, &states, query, userID, asOf); err != nil {
		return nil, apperr.Unavailable("due review states", err)
	}
	return states, nil
}

// CountDue returns how many items are due for the user as of now.
func (r *ReviewStateRepository) CountDue(ctx context.Context, userID int64, asOf time.Time) (int, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM review_states
		WHERE user_id = ? AND next_review_at <= ?
	`)
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, asOf); err != nil {
		return 0, apperr.Unavailable("count due review states", err)
	}
	return count, nil
}
