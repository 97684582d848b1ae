// Package progress rolls the answer log up into per-day trend, per-subject
// accuracy, population percentile and study recommendations.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/pkg/models"
)

// Neutral percentile returned when there is nobody to compare against.
const neutralPercentile = 50

// DueCounter is the slice of the review scheduler the aggregator needs.
type DueCounter interface {
	CountDue(ctx context.Context, userID int64, asOf time.Time) (int, error)
}

// Aggregator is the top-level progress reporting component.
type Aggregator struct {
	events *database.AnswerEventRepository
	due    DueCounter
	log    *logger.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator over the answer log and the review
// scheduler's due counts.
func NewAggregator(events *database.AnswerEventRepository, due DueCounter, log *logger.Logger) *Aggregator {
	return &Aggregator{
		events: events,
		due:    due,
		log:    log.With("component", "progress"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DailyTrend buckets the user's answers by calendar day (UTC) over the
// last `days` days, most recent day last. Days without activity appear
// with zero counts; accuracy is 0 when a day has no answers.
func (a *Aggregator) DailyTrend(ctx context.Context, userID int64, days int) ([]models.DailyBucket, error) {
	if days < 1 {
		return nil, apperr.Validationf("days must be positive, got %d", days)
	}
	now := a.now()
	start := now.Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))
	end := now.Truncate(24 * time.Hour).AddDate(0, 0, 1)

	counts, err := a.events.DailyCounts(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]database.DailyCount, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c
	}

	buckets := make([]models.DailyBucket, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		bucket := models.DailyBucket{Date: day}
		if c, ok := byDay[day]; ok {
			bucket.Total = c.Total
			bucket.Correct = c.Correct
			bucket.Accuracy = accuracy(c.Correct, c.Total)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

// SubjectBreakdown returns per-subject accuracy over the user's full
// history with the forte/medio/fraco classification.
func (a *Aggregator) SubjectBreakdown(ctx context.Context, userID int64) ([]models.SubjectStat, error) {
	counts, err := a.events.SubjectCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := make([]models.SubjectStat, 0, len(counts))
	for _, c := range counts {
		percentual := accuracy(c.Correct, c.Total) * 100
		stats = append(stats, models.SubjectStat{
			Subject:    c.Subject,
			Total:      c.Total,
			Correct:    c.Correct,
			Percentual: percentual,
			Status:     models.StatusFor(percentual),
		})
	}
	return stats, nil
}

// Percentile places the user against the population by lifetime correct
// answers, as an integer 0-100. With no other users to compare against it
// returns the neutral 50.
func (a *Aggregator) Percentile(ctx context.Context, userID int64) (int, error) {
	fewer, totalUsers, err := a.events.PercentileCounts(ctx, userID)
	if err != nil {
		return 0, err
	}
	if totalUsers <= 1 {
		return neutralPercentile, nil
	}
	p := fewer * 100 / totalUsers
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p, nil
}

// Recommendations lists suggested study actions: weak subjects first, then
// a generic review nudge when the user has overdue items.
func (a *Aggregator) Recommendations(ctx context.Context, userID int64) ([]models.Recommendation, error) {
	stats, err := a.SubjectBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}
	recs := make([]models.Recommendation, 0, 4)
	for _, stat := range stats {
		if stat.Status == models.StatusFraco {
			recs = append(recs, models.Recommendation{
				Type:     models.RecommendationWeakSubject,
				Subject:  stat.Subject,
				Priority: 1,
				Message:  fmt.Sprintf("Reforce %s: %.0f%% de acerto", stat.Subject, stat.Percentual),
			})
		}
	}

	dueCount, err := a.due.CountDue(ctx, userID, a.now())
	if err != nil {
		return nil, err
	}
	if dueCount > 0 {
		recs = append(recs, models.Recommendation{
			Type:     models.RecommendationReview,
			Priority: 2,
			Message:  fmt.Sprintf("%d revisões pendentes", dueCount),
		})
	}
	return recs, nil
}

// Summary bundles everything the progress screen needs, plus accuracy for
// the current and previous ISO weeks.
func (a *Aggregator) Summary(ctx context.Context, userID int64) (*models.ProgressSummary, error) {
	trend, err := a.DailyTrend(ctx, userID, 7)
	if err != nil {
		return nil, err
	}
	subjects, err := a.SubjectBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}
	percentile, err := a.Percentile(ctx, userID)
	if err != nil {
		return nil, err
	}
	recs, err := a.Recommendations(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	weekStart := startOfWeek(now)
	weekTotal, weekCorrect, err := a.events.AccuracyBetween(ctx, userID, weekStart, now)
	if err != nil {
		return nil, err
	}
	prevTotal, prevCorrect, err := a.events.AccuracyBetween(ctx, userID, weekStart.AddDate(0, 0, -7), weekStart)
	if err != nil {
		return nil, err
	}

	return &models.ProgressSummary{
		DailyTrend:       trend,
		Subjects:         subjects,
		Percentile:       percentile,
		Recommendations:  recs,
		WeekAccuracy:     accuracy(weekCorrect, weekTotal),
		PrevWeekAccuracy: accuracy(prevCorrect, prevTotal),
	}, nil
}

// accuracy is correct/total, 0 when total is 0.
func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
