package models

// SubjectStatus classifies per-subject accuracy.
type SubjectStatus string

const (
	StatusForte SubjectStatus = "forte" // >= 70%
	StatusMedio SubjectStatus = "medio" // 50-69%
	StatusFraco SubjectStatus = "fraco" // < 50%
)

// StatusFor maps an accuracy percentage to its label.
func StatusFor(percentual float64) SubjectStatus {
	switch {
	case percentual >= 70:
		return StatusForte
	case percentual >= 50:
		return StatusMedio
	default:
		return StatusFraco
	}
}

// DailyBucket is one calendar day of answer activity.
type DailyBucket struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"` // 0 when total is 0
}

// SubjectStat is per-subject accuracy over a user's full history.
type SubjectStat struct {
	Subject    string        `json:"subject"`
	Total      int           `json:"total"`
	Correct    int           `json:"correct"`
	Percentual float64       `json:"percentual"`
	Status     SubjectStatus `json:"status"`
}

// Recommendation kinds, ordered by priority.
const (
	RecommendationWeakSubject = "weak_subject"
	RecommendationReview      = "review"
)

// Recommendation is a suggested next study action.
type Recommendation struct {
	Type     string `json:"type"`
	Subject  string `json:"subject,omitempty"`
	Priority int    `json:"priority"` // Lower is more urgent
	Message  string `json:"message"`
}

// ProgressSummary bundles the aggregator outputs for one user.
type ProgressSummary struct {
	DailyTrend      []DailyBucket    `json:"daily_trend"`
	Subjects        []SubjectStat    `json:"subjects"`
	Percentile      int              `json:"percentile"`
	Recommendations []Recommendation `json:"recommendations"`
	WeekAccuracy    float64          `json:"week_accuracy"`
	PrevWeekAccuracy float64         `json:"prev_week_accuracy"`
}
