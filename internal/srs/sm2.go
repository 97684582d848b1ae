// Package srs implements the SM-2 spaced-repetition schedule that decides
// what a user should re-study and when.
package srs

import (
	"math"
	"time"

	"github.com/example/provalab/pkg/models"
)

const (
	// Ease factor bounds. Every update clamps back into this range.
	MinEase     = 1.3
	MaxEase     = 2.5
	DefaultEase = 2.5

	// Ease penalty applied on a failed recall.
	failPenalty = 0.2

	// Quality 3 and above counts as a successful recall.
	passThreshold = 3

	// Fixed intervals for the first two successful repetitions.
	firstInterval  = 1
	secondInterval = 6
)

// NewState returns the default state for an item that has never been
// reviewed.
func NewState(userID, itemID int64) models.ReviewState {
	return models.ReviewState{
		UserID:       userID,
		ItemID:       itemID,
		IntervalDays: 0,
		EaseFactor:   DefaultEase,
		Repetitions:  0,
	}
}

// Apply runs one SM-2 update for a review answered with the given
// difficulty at the given time. The input state is not modified.
//
// On failure (quality < 3) repetitions reset to 0 and the interval to one
// day, with a small ease penalty. On success the interval follows the
// 1, 6, round(previous x ease) ladder and the ease factor moves by the
// standard SM-2 delta. The ease factor is clamped to [1.3, 2.5] either way.
func Apply(state models.ReviewState, difficulty models.Difficulty, at time.Time) models.ReviewState {
	quality := difficulty.Quality()
	next := state
	next.LastDifficulty = difficulty
	next.LastReviewedAt = at

	if quality < passThreshold {
		next.Repetitions = 0
		next.IntervalDays = firstInterval
		next.EaseFactor = clampEase(state.EaseFactor - failPenalty)
	} else {
		q := float64(quality)
		next.EaseFactor = clampEase(state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02)))
		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = firstInterval
		case 2:
			next.IntervalDays = secondInterval
		default:
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * next.EaseFactor))
		}
	}

	next.NextReviewAt = at.AddDate(0, 0, next.IntervalDays)
	return next
}

func clampEase(ease float64) float64 {
	if ease < MinEase {
		return MinEase
	}
	if ease > MaxEase {
		return MaxEase
	}
	return ease
}
