package models

import (
	"database/sql"
	"time"
)

// User is the profile record the engine reads and updates as a side effect
// of processing answers. The engine does not own this record.
type User struct {
	ID                  int64         `json:"id" db:"id"`
	Username            string        `json:"username" db:"username"`
	XP                  int           `json:"xp" db:"xp"`
	Level               int           `json:"level" db:"level"`
	Coins               int           `json:"coins" db:"coins"`
	Streak              int           `json:"streak" db:"streak"` // Consecutive days with at least one answer
	LastAnswerDate      sql.NullTime  `json:"last_answer_date" db:"last_answer_date"`
	NotificationEnabled bool          `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int           `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	TelegramChatID      sql.NullInt64 `json:"-" db:"telegram_chat_id"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}
