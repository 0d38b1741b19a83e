// internal/adherence/analyzer.go
package adherence

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Margins for flagging a pattern, in miss-rate points.
const (
	groupMargin = 0.15 // weekday/weekend and time-slot excess
	trendMargin = 0.10 // change needed to call a trend
)

// Trend classifications.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

type timeSlot struct {
	name       string
	start, end int // inclusive hour bounds; night wraps midnight
}

var timeSlots = []timeSlot{
	{"morning", 5, 11},
	{"afternoon", 12, 16},
	{"evening", 17, 21},
	{"night", 22, 4},
}

func (s timeSlot) contains(hour int) bool {
	if s.start <= s.end {
		return hour >= s.start && hour <= s.end
	}
	return hour >= s.start || hour <= s.end
}

// Analyzer mines dose history for recurring behavioural patterns. It works
// directly on history and never consults the trained model. It degrades to
// an empty insight list rather than failing.
type Analyzer struct {
	logger *zap.Logger
}

func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze returns pattern insights over the trailing windowDays, ordered
// by descending severity, ties broken by more recently observed evidence.
func (a *Analyzer) Analyze(now time.Time, history []DoseRecord, windowDays int) []PatternInsight {
	windowStart := now.AddDate(0, 0, -windowDays)

	var records []DoseRecord
	for _, r := range history {
		if r.Status.Terminal() && !r.ScheduledTime.Before(windowStart) && !r.ScheduledTime.After(now) {
			records = append(records, r)
		}
	}
	if len(records) == 0 {
		return []PatternInsight{}
	}

	insights := []PatternInsight{}
	if in, ok := a.weekdayWeekend(records); ok {
		insights = append(insights, in)
	}
	insights = append(insights, a.problemSlots(records)...)
	if in, ok := a.trend(now, records); ok {
		insights = append(insights, in)
	}

	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].Severity != insights[j].Severity {
			return insights[i].Severity > insights[j].Severity
		}
		return insights[i].LastObserved.After(insights[j].LastObserved)
	})
	return insights
}

// Summarize aggregates outcomes over the trailing windowDays. Delayed
// doses count toward adherence.
func (a *Analyzer) Summarize(now time.Time, history []DoseRecord, windowDays int) AdherenceSummary {
	windowStart := now.AddDate(0, 0, -windowDays)

	var s AdherenceSummary
	for _, r := range history {
		if !r.Status.Terminal() || r.ScheduledTime.Before(windowStart) || r.ScheduledTime.After(now) {
			continue
		}
		s.TotalDoses++
		switch r.Status {
		case StatusTaken:
			s.Taken++
		case StatusMissed:
			s.Missed++
		case StatusDelayed:
			s.Delayed++
		}
	}
	if s.TotalDoses > 0 {
		s.AdherenceRate = float64(s.Taken+s.Delayed) / float64(s.TotalDoses)
	}
	return s
}

func (a *Analyzer) weekdayWeekend(records []DoseRecord) (PatternInsight, bool) {
	var wkTotal, wkMissed, weTotal, weMissed int
	var wkLast, weLast time.Time

	for _, r := range records {
		if isWeekend(r.ScheduledTime) {
			weTotal++
			if r.Status == StatusMissed {
				weMissed++
			}
			if r.ScheduledTime.After(weLast) {
				weLast = r.ScheduledTime
			}
		} else {
			wkTotal++
			if r.Status == StatusMissed {
				wkMissed++
			}
			if r.ScheduledTime.After(wkLast) {
				wkLast = r.ScheduledTime
			}
		}
	}
	if wkTotal == 0 || weTotal == 0 {
		return PatternInsight{}, false
	}

	wkRate := float64(wkMissed) / float64(wkTotal)
	weRate := float64(weMissed) / float64(weTotal)
	diff := weRate - wkRate

	switch {
	case diff > groupMargin:
		return PatternInsight{
			Category: CategoryWeekdayWeekend,
			Description: fmt.Sprintf("doses are missed more often on weekends (%.0f%% vs %.0f%% on weekdays)",
				weRate*100, wkRate*100),
			Metric:       weRate,
			Severity:     diff,
			LastObserved: weLast,
		}, true
	case -diff > groupMargin:
		return PatternInsight{
			Category: CategoryWeekdayWeekend,
			Description: fmt.Sprintf("doses are missed more often on weekdays (%.0f%% vs %.0f%% on weekends)",
				wkRate*100, weRate*100),
			Metric:       wkRate,
			Severity:     -diff,
			LastObserved: wkLast,
		}, true
	}
	return PatternInsight{}, false
}

func (a *Analyzer) problemSlots(records []DoseRecord) []PatternInsight {
	var overallMissed int
	for _, r := range records {
		if r.Status == StatusMissed {
			overallMissed++
		}
	}
	overall := float64(overallMissed) / float64(len(records))

	var insights []PatternInsight
	for _, slot := range timeSlots {
		var total, missed int
		var last time.Time
		for _, r := range records {
			if !slot.contains(r.ScheduledTime.Hour()) {
				continue
			}
			total++
			if r.Status == StatusMissed {
				missed++
			}
			if r.ScheduledTime.After(last) {
				last = r.ScheduledTime
			}
		}
		if total == 0 {
			continue
		}
		rate := float64(missed) / float64(total)
		excess := rate - overall
		if excess > groupMargin {
			insights = append(insights, PatternInsight{
				Category: CategoryTimeSlot,
				Description: fmt.Sprintf("%s doses are missed %.0f%% of the time, above the %.0f%% overall rate",
					slot.name, rate*100, overall*100),
				Metric:       rate,
				Severity:     excess,
				LastObserved: last,
			})
		}
	}
	return insights
}

// trend compares the last 7 days against the 7 days before that.
func (a *Analyzer) trend(now time.Time, records []DoseRecord) (PatternInsight, bool) {
	recentStart := now.AddDate(0, 0, -7)
	priorStart := now.AddDate(0, 0, -14)

	var recentTotal, recentMissed, priorTotal, priorMissed int
	var last time.Time
	for _, r := range records {
		switch {
		case r.ScheduledTime.After(recentStart):
			recentTotal++
			if r.Status == StatusMissed {
				recentMissed++
			}
		case r.ScheduledTime.After(priorStart):
			priorTotal++
			if r.Status == StatusMissed {
				priorMissed++
			}
		}
		if r.ScheduledTime.After(last) {
			last = r.ScheduledTime
		}
	}
	if recentTotal == 0 || priorTotal == 0 {
		return PatternInsight{}, false
	}

	recentRate := float64(recentMissed) / float64(recentTotal)
	priorRate := float64(priorMissed) / float64(priorTotal)
	delta := recentRate - priorRate

	direction := TrendStable
	description := fmt.Sprintf("adherence is stable (%.0f%% miss rate over the last week)", recentRate*100)
	switch {
	case delta < -trendMargin:
		direction = TrendImproving
		description = fmt.Sprintf("adherence is improving: miss rate fell from %.0f%% to %.0f%%",
			priorRate*100, recentRate*100)
	case delta > trendMargin:
		direction = TrendDeclining
		description = fmt.Sprintf("adherence is declining: miss rate rose from %.0f%% to %.0f%%",
			priorRate*100, recentRate*100)
	}

	a.logger.Debug("trend computed",
		zap.String("direction", direction),
		zap.Float64("recent_rate", recentRate),
		zap.Float64("prior_rate", priorRate))

	return PatternInsight{
		Category:     CategoryTrend,
		Description:  description,
		Metric:       delta,
		Severity:     abs(delta),
		LastObserved: last,
	}, true
}
