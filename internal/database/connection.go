package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Connect opens the database for the given driver ("postgres" or
// "sqlite3") and bootstraps the schema. The returned handle is injected
// into the repositories; there is no package-level connection.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initializeSchema creates the tables if they don't exist.
func initializeSchema(db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS users (
			id %s,
			username TEXT NOT NULL UNIQUE,
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			coins INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			last_answer_date TIMESTAMP,
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			telegram_chat_id BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			id %s,
			subject TEXT NOT NULL,
			statement TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			srs_enabled BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		`
		CREATE TABLE IF NOT EXISTS answer_events (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			item_id BIGINT NOT NULL REFERENCES items(id),
			is_correct BOOLEAN NOT NULL,
			difficulty TEXT NOT NULL,
			study_mode TEXT NOT NULL,
			answered_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS review_states (
			id %s,
			user_id BIGINT NOT NULL REFERENCES users(id),
			item_id BIGINT NOT NULL REFERENCES items(id),
			last_difficulty TEXT NOT NULL DEFAULT 'medium',
			interval_days INTEGER NOT NULL DEFAULT 0,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			repetitions INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			next_review_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, item_id)
		)`, serial),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS flashcards (
			id %s,
			user_id BIGINT NOT NULL REFERENCES users(id),
			item_id BIGINT REFERENCES items(id),
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			mastery_level TEXT NOT NULL DEFAULT 'new',
			correct_streak INTEGER NOT NULL DEFAULT 0,
			next_review_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		`
		CREATE TABLE IF NOT EXISTS league_memberships (
			user_id BIGINT PRIMARY KEY REFERENCES users(id),
			tier TEXT NOT NULL DEFAULT 'ferro',
			weekly_xp INTEGER NOT NULL DEFAULT 0,
			lifetime_xp INTEGER NOT NULL DEFAULT 0,
			last_epoch TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`
		CREATE TABLE IF NOT EXISTS league_epochs (
			tier TEXT NOT NULL,
			epoch_start TIMESTAMP NOT NULL,
			closed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (tier, epoch_start)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answer_events_user_time ON answer_events(user_id, answered_at)`,
		`CREATE INDEX IF NOT EXISTS idx_review_states_due ON review_states(user_id, next_review_at)`,
		`CREATE INDEX IF NOT EXISTS idx_league_tier ON league_memberships(tier)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}

// isForeignKeyViolation reports whether err is a referential integrity
// failure from either supported driver.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
