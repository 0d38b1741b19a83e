// internal/adherence/features.go
package adherence

import (
	"sort"
	"time"
)

const recentWindow = 7 * 24 * time.Hour

// FeatureExtractor turns a candidate dose plus prior history into a
// FeatureVector. It is deterministic and side-effect free.
type FeatureExtractor struct{}

// Extract computes the feature vector for a dose of medicationID scheduled
// at candidate. Only records strictly before candidate contribute; the
// filter lives here so callers cannot leak the evaluated dose (or anything
// later) into its own features. With no prior history every derived
// feature is 0.
func (fe *FeatureExtractor) Extract(candidate time.Time, medicationID string, history []DoseRecord) FeatureVector {
	prior := priorHistory(candidate, medicationID, history)

	v := FeatureVector{
		HourOfDay: float64(candidate.Hour()),
		DayOfWeek: float64(weekdayIndex(candidate)),
	}

	windowStart := candidate.Add(-recentWindow)
	var windowTotal, windowMissed int
	var delaySum float64
	var delayCount int

	for _, r := range prior {
		if r.ScheduledTime.After(windowStart) {
			windowTotal++
			if r.Status == StatusMissed {
				windowMissed++
			}
		}
		if r.Status == StatusDelayed {
			delaySum += delayMinutes(r)
			delayCount++
		}
	}

	if windowTotal > 0 {
		v.RecentMissRate = float64(windowMissed) / float64(windowTotal)
	}
	if delayCount > 0 {
		v.AvgDelayMinutes = delaySum / float64(delayCount)
	}
	v.CurrentStreak = float64(streak(prior))

	return v
}

// priorHistory filters to this medication's records strictly before the
// candidate time, sorted by scheduled time ascending.
func priorHistory(candidate time.Time, medicationID string, history []DoseRecord) []DoseRecord {
	var prior []DoseRecord
	for _, r := range history {
		if r.MedicationID == medicationID && r.ScheduledTime.Before(candidate) {
			prior = append(prior, r)
		}
	}
	sort.Slice(prior, func(i, j int) bool {
		return prior[i].ScheduledTime.Before(prior[j].ScheduledTime)
	})
	return prior
}

// streak counts consecutive non-Missed records walking backward from the
// most recent one, stopping at the first Missed.
func streak(prior []DoseRecord) int {
	n := 0
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Status == StatusMissed {
			break
		}
		n++
	}
	return n
}

func delayMinutes(r DoseRecord) float64 {
	if r.ActualTime != nil {
		return r.ActualTime.Sub(r.ScheduledTime).Minutes()
	}
	return float64(r.DelayMinutes)
}
