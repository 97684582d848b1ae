package models

import (
	"database/sql"
	"time"
)

// MasteryLevel is the coarse three-state label tracked per flashcard,
// independent of the numeric SM-2 state.
type MasteryLevel string

const (
	MasteryNew      MasteryLevel = "new"
	MasteryLearning MasteryLevel = "learning"
	MasteryMastered MasteryLevel = "mastered"
)

// Flashcard is a user-owned card, created manually or generated in bulk
// from missed items. ItemID is set when the card was generated from a
// catalog question.
type Flashcard struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	ItemID        sql.NullInt64 `json:"item_id,omitempty" db:"item_id"`
	Front         string        `json:"front" db:"front"`
	Back          string        `json:"back" db:"back"`
	MasteryLevel  MasteryLevel  `json:"mastery_level" db:"mastery_level"`
	CorrectStreak int           `json:"correct_streak" db:"correct_streak"` // Consecutive remembered reviews at the current level
	NextReviewAt  time.Time     `json:"next_review_at" db:"next_review_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
