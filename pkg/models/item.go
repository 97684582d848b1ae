package models

import "time"

// Item is a question from the catalog. The engine consumes it read-only:
// Subject for progress bucketing, SRSEnabled to decide whether answers feed
// the review scheduler.
type Item struct {
	ID         int64     `json:"id" db:"id"`
	Subject    string    `json:"subject" db:"subject"`
	Statement  string    `json:"statement" db:"statement"`
	Answer     string    `json:"answer" db:"answer"`
	SRSEnabled bool      `json:"srs_enabled" db:"srs_enabled"` // Flagged for spaced review
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
