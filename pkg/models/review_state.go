package models

import "time"

// ReviewState tracks a user's spaced-repetition progress on a single item
// using the SM-2 algorithm. One record per (user, item).
type ReviewState struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	ItemID         int64      `json:"item_id" db:"item_id"`
	LastDifficulty Difficulty `json:"last_difficulty" db:"last_difficulty"`
	IntervalDays   int        `json:"interval_days" db:"interval_days"`     // Current interval in days
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`         // SM-2 EF parameter, clamped to [1.3, 2.5]
	Repetitions    int        `json:"repetitions" db:"repetitions"`         // Consecutive successful reviews
	LastReviewedAt time.Time  `json:"last_reviewed_at" db:"last_reviewed_at"`
	NextReviewAt   time.Time  `json:"next_review_at" db:"next_review_at"`
	Version        int64      `json:"-" db:"version"` // Optimistic concurrency check
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
