// Package mastery tracks the coarse new/learning/mastered label for
// flashcards. It runs in parallel to the numeric SM-2 state and never
// consults the ease factor, because flashcards can be decoupled from
// graded questions.
package mastery

import (
	"time"

	"github.com/example/provalab/pkg/models"
)

// Consecutive remembered reviews needed to leave the current level.
const promoteStreak = 2

// Review spacing per level. Coarse on purpose; the precise schedule lives
// in the srs package for graded items.
var reviewDelays = map[models.MasteryLevel]int{
	models.MasteryNew:      1,
	models.MasteryLearning: 3,
	models.MasteryMastered: 7,
}

// Advance applies one flashcard review. Two consecutive remembered reviews
// promote new -> learning -> mastered; any miss demotes one level (never
// below new) and clears the streak. The input card is not modified.
func Advance(card models.Flashcard, remembered bool, at time.Time) models.Flashcard {
	next := card
	if next.MasteryLevel == "" {
		next.MasteryLevel = models.MasteryNew
	}

	if !remembered {
		next.CorrectStreak = 0
		switch next.MasteryLevel {
		case models.MasteryMastered:
			next.MasteryLevel = models.MasteryLearning
		case models.MasteryLearning:
			next.MasteryLevel = models.MasteryNew
		}
	} else {
		next.CorrectStreak++
		if next.CorrectStreak >= promoteStreak {
			switch next.MasteryLevel {
			case models.MasteryNew:
				next.MasteryLevel = models.MasteryLearning
				next.CorrectStreak = 0
			case models.MasteryLearning:
				next.MasteryLevel = models.MasteryMastered
				next.CorrectStreak = 0
			}
		}
	}

	next.NextReviewAt = at.AddDate(0, 0, reviewDelays[next.MasteryLevel])
	return next
}
