package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/pkg/models"
)

// AnswerEventRepository handles the append-only answer event log and the
// aggregate queries derived from it. Events are never updated or deleted.
type AnswerEventRepository struct {
	db *sqlx.DB
}

// NewAnswerEventRepository creates a new repository instance.
func NewAnswerEventRepository(db *sqlx.DB) *AnswerEventRepository {
	return &AnswerEventRepository{db: db}
}

// Append inserts a new answer event.
func (r *AnswerEventRepository) Append(ctx context.Context, event *models.AnswerEvent) error {
	query := r.db.Rebind(`
		INSERT INTO answer_events (id, user_id, item_id, is_correct, difficulty, study_mode, answered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.ItemID,
		event.IsCorrect,
		event.Difficulty,
		event.StudyMode,
		event.AnsweredAt,
	)
	if err != nil {
		return apperr.Unavailable("append answer event", err)
	}
	return nil
}

// DailyCount is one calendar day of raw answer counts.
type DailyCount struct {
	Day     string `db:"day"` // YYYY-MM-DD
	Total   int    `db:"total"`
	Correct int    `db:"correct"`
}

// DailyCounts returns per-day answer counts for the user between from and
// to (inclusive of from, exclusive of to). Days without answers are absent.
func (r *AnswerEventRepository) DailyCounts(ctx context.Context, userID int64, from, to time.Time) ([]DailyCount, error) {
	dayExpr := "to_char(answered_at, 'YYYY-MM-DD')"
	if r.db.DriverName() == "sqlite3" {
		dayExpr = "strftime('%Y-%m-%d', answered_at)"
	}
	query := r.db.Rebind(`
		SELECT ` + dayExpr + ` AS day,
		       COUNT(*) AS total,
		       SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) AS correct
		FROM answer_events
		WHERE user_id = ? AND answered_at >= ? AND answered_at < ?
		GROUP BY day
		ORDER BY day ASC
	`)
	var counts []DailyCount
	if err := r.db.SelectContext(ctx, &counts, query, userID, from, to); err != nil {
		return nil, apperr.Unavailable("daily counts", err)
	}
	return counts, nil
}

// SubjectCount is accuracy raw material for one subject tag.
type SubjectCount struct {
	Subject string `db:"subject"`
	Total   int    `db:"total"`
	Correct int    `db:"correct"`
}

// SubjectCounts returns per-subject answer counts over the user's full
// history, joined against the item catalog.
func (r *AnswerEventRepository) SubjectCounts(ctx context.Context, userID int64) ([]SubjectCount, error) {
	query := r.db.Rebind(`
		SELECT i.subject AS subject,
		       COUNT(*) AS total,
		       SUM(CASE WHEN e.is_correct THEN 1 ELSE 0 END) AS correct
		FROM answer_events e
		JOIN items i ON i.id = e.item_id
		WHERE e.user_id = ?
		GROUP BY i.subject
		ORDER BY i.subject ASC
	`)
	var counts []SubjectCount
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, apperr.Unavailable("subject counts", err)
	}
	return counts, nil
}

// AccuracyBetween returns total and correct answer counts in [from, to).
func (r *AnswerEventRepository) AccuracyBetween(ctx context.Context, userID int64, from, to time.Time) (total, correct int, err error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct
		FROM answer_events
		WHERE user_id = ? AND answered_at >= ? AND answered_at < ?
	`)
	var row struct {
		Total   int `db:"total"`
		Correct int `db:"correct"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID, from, to); err != nil {
		return 0, 0, apperr.Unavailable("accuracy between", err)
	}
	return row.Total, row.Correct, nil
}

// PercentileCounts returns how many other users have fewer lifetime correct
// answers than the given user, and the total user count.
func (r *AnswerEventRepository) PercentileCounts(ctx context.Context, userID int64) (fewer, totalUsers int, err error) {
	query := r.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users u
			 WHERE u.id <> ?
			   AND (SELECT COUNT(*) FROM answer_events e
			        WHERE e.user_id = u.id AND e.is_correct)
			     < (SELECT COUNT(*) FROM answer_events e
			        WHERE e.user_id = ? AND e.is_correct)
			) AS fewer
	`)
	var row struct {
		TotalUsers int `db:"total_users"`
		Fewer      int `db:"fewer"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID, userID); err != nil {
		return 0, 0, apperr.Unavailable("percentile counts", err)
	}
	return row.Fewer, row.TotalUsers, nil
}
