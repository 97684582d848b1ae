package models

import "time"

// Difficulty is the self-reported recall rating attached to an answer.
type Difficulty string

const (
	DifficultyError  Difficulty = "error"
	DifficultyHard   Difficulty = "hard"
	DifficultyMedium Difficulty = "medium"
	DifficultyEasy   Difficulty = "easy"
)

// Quality maps the difficulty label to the 0-5 SM-2 quality scale.
// Ratings 3 and above count as a successful recall.
func (d Difficulty) Quality() int {
	switch d {
	case DifficultyError:
		return 0
	case DifficultyHard:
		return 3
	case DifficultyMedium:
		return 4
	case DifficultyEasy:
		return 5
	default:
		return -1
	}
}

// Valid reports whether the label is one of the four known ratings.
func (d Difficulty) Valid() bool {
	return d.Quality() >= 0
}

// StudyMode describes the context an answer was produced in.
type StudyMode string

const (
	ModePractice StudyMode = "practice"
	ModeReview   StudyMode = "review"
	ModeExam     StudyMode = "exam"
)

// Valid reports whether the mode is known.
func (m StudyMode) Valid() bool {
	switch m {
	case ModePractice, ModeReview, ModeExam:
		return true
	}
	return false
}

// AnswerEvent is one answered question. Events are append-only: once
// written they are never mutated or deleted.
type AnswerEvent struct {
	ID         string     `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	ItemID     int64      `json:"item_id" db:"item_id"`
	IsCorrect  bool       `json:"is_correct" db:"is_correct"`
	Difficulty Difficulty `json:"difficulty" db:"difficulty"`
	StudyMode  StudyMode  `json:"study_mode" db:"study_mode"`
	AnsweredAt time.Time  `json:"answered_at" db:"answered_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
