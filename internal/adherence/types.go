// internal/adherence/types.go
package adherence

import (
	"time"
)

// Status is the terminal outcome of a scheduled dose. Records carrying a
// terminal status are never rewritten.
type Status string

const (
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusDelayed Status = "delayed"
	StatusPending Status = "pending"
)

// Terminal reports whether the status is a recorded outcome rather than a
// dose still waiting to happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusTaken, StatusMissed, StatusDelayed:
		return true
	}
	return false
}

// DoseRecord is one scheduled dose and its outcome.
type DoseRecord struct {
	ID             string
	MedicationID   string
	MedicationName string
	Dosage         string
	ScheduledTime  time.Time
	ActualTime     *time.Time
	Status         Status
	DelayMinutes   int
}

// Medication with its ordered daily schedule times ("08:00", "20:00").
type Medication struct {
	ID        string
	Name      string
	Dosage    string
	Schedule  []string
	CreatedAt time.Time
}

// FeatureCount is the fixed dimensionality of the classifier input.
const FeatureCount = 5

// FeatureVector summarises recent adherence behaviour around a candidate
// dose time.
type FeatureVector struct {
	HourOfDay       float64
	DayOfWeek       float64
	RecentMissRate  float64
	AvgDelayMinutes float64
	CurrentStreak   float64
}

// Values returns the vector in training order.
func (f FeatureVector) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{
		f.HourOfDay,
		f.DayOfWeek,
		f.RecentMissRate,
		f.AvgDelayMinutes,
		f.CurrentStreak,
	}
}

// FeatureNames aligns with Values().
var FeatureNames = [FeatureCount]string{
	"hour_of_day",
	"day_of_week",
	"recent_miss_rate",
	"avg_delay_minutes",
	"current_streak",
}

// TrainedModel is an immutable classifier snapshot. A training run always
// produces a fresh snapshot; nothing mutates one after publication.
type TrainedModel struct {
	Weights     [FeatureCount]float64
	Bias        float64
	TrainedAt   time.Time
	SampleCount int
}

// RiskTier buckets a predicted probability.
type RiskTier string

const (
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

// TierForProbability maps a probability to its tier.
// LOW below 0.30, MEDIUM up to but excluding 0.60, HIGH from 0.60.
func TierForProbability(p float64) RiskTier {
	switch {
	case p >= 0.60:
		return TierHigh
	case p >= 0.30:
		return TierMedium
	default:
		return TierLow
	}
}

// Factor is one feature's signed contribution to a prediction.
type Factor struct {
	Feature      string  `json:"feature"`
	Contribution float64 `json:"contribution"`
}

// RiskAssessment is the predictor's output for a single candidate dose.
type RiskAssessment struct {
	MedicationID  string    `json:"medication_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Probability   float64   `json:"probability"`
	Tier          RiskTier  `json:"risk_tier"`
	Factors       []Factor  `json:"factors"`
}

// InsightCategory classifies a behavioural pattern.
type InsightCategory string

const (
	CategoryWeekdayWeekend InsightCategory = "weekday_weekend"
	CategoryTimeSlot       InsightCategory = "time_slot"
	CategoryTrend          InsightCategory = "trend"
)

// PatternInsight is one detected adherence pattern. Severity orders
// insights (larger deviation first); LastObserved breaks ties toward the
// more recently supported pattern.
type PatternInsight struct {
	Category     InsightCategory `json:"category"`
	Description  string          `json:"description"`
	Metric       float64         `json:"metric"`
	Severity     float64         `json:"-"`
	LastObserved time.Time       `json:"-"`
}

// TrainingResult summarises a completed training run.
type TrainingResult struct {
	TrainedAt   time.Time `json:"trained_at"`
	SampleCount int       `json:"sample_count"`
}

// AdherenceSummary aggregates outcomes over a window. Delayed doses count
// as adherent.
type AdherenceSummary struct {
	AdherenceRate float64 `json:"adherence_rate"`
	TotalDoses    int     `json:"total_doses"`
	Taken         int     `json:"taken"`
	Missed        int     `json:"missed"`
	Delayed       int     `json:"delayed"`
}

// weekdayIndex maps to Monday=0 .. Sunday=6, so indexes 5 and 6 are the
// weekend.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func isWeekend(t time.Time) bool {
	return weekdayIndex(t) >= 5
}
