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

// Lifetime XP needed per profile level.
const xpPerLevel = 1000

// UserRepository handles the profile rows the engine updates as a side
// effect of processing answers.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by ID, or apperr.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT * FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("get user", err)
	}
	return &user, nil
}

// Create inserts a new user profile.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	insert := `
		INSERT INTO users (username, xp, level, coins, streak, notification_enabled, notification_hour)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if user.Level == 0 {
		user.Level = 1
	}
	args := []interface{}{
		user.Username,
		user.XP,
		user.Level,
		user.Coins,
		user.Streak,
		user.NotificationEnabled,
		user.NotificationHour,
	}
	if r.db.DriverName() == "postgres" {
		query := r.db.Rebind(insert + " RETURNING id")
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
			return apperr.Unavailable("create user", err)
		}
		return nil
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(insert), args...)
	if err != nil {
		return apperr.Unavailable("create user", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return apperr.Unavailable("create user", err)
	}
	user.ID = id
	return nil
}

// ApplyAnswerRewards adds xp and coins earned by an answer and maintains
// the daily streak: unchanged within the same day, incremented when the
// previous answer was yesterday, reset to 1 otherwise. Level is derived
// from lifetime xp.
func (r *UserRepository) ApplyAnswerRewards(ctx context.Context, userID int64, xp, coins int, answeredAt time.Time) (*models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := answeredAt.UTC().Truncate(24 * time.Hour)
	switch {
	case !user.LastAnswerDate.Valid:
		user.Streak = 1
	case user.LastAnswerDate.Time.UTC().Truncate(24 * time.Hour).Equal(day):
		// Same day, streak unchanged.
	case user.LastAnswerDate.Time.UTC().Truncate(24 * time.Hour).Equal(day.AddDate(0, 0, -1)):
		user.Streak++
	default:
		user.Streak = 1
	}
	user.LastAnswerDate = sql.NullTime{Time: day, Valid: true}
	user.XP += xp
	user.Coins += coins
	user.Level = 1 + user.XP/xpPerLevel

	query := r.db.Rebind(`
		UPDATE users SET
			xp = ?,
			level = ?,
			coins = ?,
			streak = ?,
			last_answer_date = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)
	if _, err := r.db.ExecContext(ctx, query,
		user.XP, user.Level, user.Coins, user.Streak, user.LastAnswerDate, user.ID,
	); err != nil {
		return nil, apperr.Unavailable("apply answer rewards", err)
	}
	return user, nil
}

// GetUsersForReminder returns users who opted into reminders at the given
// hour and have a chat channel configured.
func (r *UserRepository) GetUsersForReminder(ctx context.Context, hour int) ([]models.User, error) {
	query := r.db.Rebind(`
		SELECT * FROM users
		WHERE notification_enabled AND notification_hour = ? AND telegram_chat_id IS NOT NULL
		ORDER BY id ASC
	`)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, hour); err != nil {
		return nil, apperr.Unavailable("users for reminder", err)
	}
	return users, nil
}
