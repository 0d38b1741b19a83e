// internal/adherence/features_test.go
package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	// A Monday morning, so weekday indexes are easy to reason about.
	baseTime = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	medID    = "med-1"
)

func record(scheduled time.Time, status Status) DoseRecord {
	return DoseRecord{
		MedicationID:  medID,
		ScheduledTime: scheduled,
		Status:        status,
	}
}

func delayedRecord(scheduled time.Time, delay time.Duration) DoseRecord {
	actual := scheduled.Add(delay)
	return DoseRecord{
		MedicationID:  medID,
		ScheduledTime: scheduled,
		ActualTime:    &actual,
		Status:        StatusDelayed,
	}
}

func TestFeatureExtractor_EmptyHistory(t *testing.T) {
	fe := &FeatureExtractor{}

	v := fe.Extract(baseTime, medID, nil)

	assert.Equal(t, 8.0, v.HourOfDay)
	assert.Equal(t, 0.0, v.DayOfWeek) // Monday
	assert.Zero(t, v.RecentMissRate)
	assert.Zero(t, v.AvgDelayMinutes)
	assert.Zero(t, v.CurrentStreak)
}

func TestFeatureExtractor_ExcludesCandidateAndLater(t *testing.T) {
	fe := &FeatureExtractor{}

	history := []DoseRecord{
		record(baseTime, StatusMissed),                   // the dose itself
		record(baseTime.Add(24*time.Hour), StatusMissed), // future
		record(baseTime.Add(-24*time.Hour), StatusTaken), // prior
		record(baseTime.Add(-48*time.Hour), StatusTaken), // prior
	}

	v := fe.Extract(baseTime, medID, history)

	// Only the two prior taken records count: no misses, streak of 2.
	assert.Zero(t, v.RecentMissRate)
	assert.Equal(t, 2.0, v.CurrentStreak)
}

func TestFeatureExtractor_IgnoresOtherMedications(t *testing.T) {
	fe := &FeatureExtractor{}

	history := []DoseRecord{
		{MedicationID: "other", ScheduledTime: baseTime.Add(-24 * time.Hour), Status: StatusMissed},
		record(baseTime.Add(-24*time.Hour), StatusTaken),
	}

	v := fe.Extract(baseTime, medID, history)

	assert.Zero(t, v.RecentMissRate)
	assert.Equal(t, 1.0, v.CurrentStreak)
}

func TestFeatureExtractor_RecentMissRate(t *testing.T) {
	fe := &FeatureExtractor{}

	history := []DoseRecord{
		record(baseTime.Add(-1*24*time.Hour), StatusMissed),
		record(baseTime.Add(-2*24*time.Hour), StatusTaken),
		record(baseTime.Add(-3*24*time.Hour), StatusTaken),
		record(baseTime.Add(-4*24*time.Hour), StatusTaken),
		// Outside the 7-day window, must not count toward the rate.
		record(baseTime.Add(-8*24*time.Hour), StatusMissed),
	}

	v := fe.Extract(baseTime, medID, history)

	assert.InDelta(t, 0.25, v.RecentMissRate, 1e-9)
}

func TestFeatureExtractor_StreakResetsAtMiss(t *testing.T) {
	fe := &FeatureExtractor{}

	history := []DoseRecord{
		record(baseTime.Add(-4*24*time.Hour), StatusTaken),
		record(baseTime.Add(-3*24*time.Hour), StatusMissed),
		record(baseTime.Add(-2*24*time.Hour), StatusTaken),
		record(baseTime.Add(-1*24*time.Hour), StatusDelayed),
	}

	v := fe.Extract(baseTime, medID, history)

	// Delayed does not break a streak; the miss three days back does.
	assert.Equal(t, 2.0, v.CurrentStreak)
}

func TestFeatureExtractor_AverageDelay(t *testing.T) {
	fe := &FeatureExtractor{}

	history := []DoseRecord{
		delayedRecord(baseTime.Add(-1*24*time.Hour), 90*time.Minute),
		delayedRecord(baseTime.Add(-2*24*time.Hour), 30*time.Minute),
		record(baseTime.Add(-3*24*time.Hour), StatusTaken),
	}

	v := fe.Extract(baseTime, medID, history)

	assert.InDelta(t, 60.0, v.AvgDelayMinutes, 1e-9)
}

func TestFeatureExtractor_ValueRanges(t *testing.T) {
	fe := &FeatureExtractor{}

	var history []DoseRecord
	for i := 1; i <= 30; i++ {
		status := StatusTaken
		if i%3 == 0 {
			status = StatusMissed
		}
		history = append(history, record(baseTime.Add(-time.Duration(i)*13*time.Hour), status))
	}

	for hour := 0; hour < 24; hour++ {
		candidate := time.Date(2024, 6, 3+hour%7, hour, 0, 0, 0, time.UTC)
		v := fe.Extract(candidate, medID, history)

		assert.GreaterOrEqual(t, v.HourOfDay, 0.0)
		assert.LessOrEqual(t, v.HourOfDay, 23.0)
		assert.GreaterOrEqual(t, v.DayOfWeek, 0.0)
		assert.LessOrEqual(t, v.DayOfWeek, 6.0)
		assert.GreaterOrEqual(t, v.RecentMissRate, 0.0)
		assert.LessOrEqual(t, v.RecentMissRate, 1.0)
	}
}
