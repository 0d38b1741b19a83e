// internal/adherence/analyzer_test.go
package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func findInsight(insights []PatternInsight, category InsightCategory) (PatternInsight, bool) {
	for _, in := range insights {
		if in.Category == category {
			return in, true
		}
	}
	return PatternInsight{}, false
}

func TestAnalyzer_EmptyHistory(t *testing.T) {
	analyzer := NewAnalyzer(zap.NewNop())

	insights := analyzer.Analyze(baseTime, nil, 30)

	require.NotNil(t, insights)
	assert.Empty(t, insights)
}

func TestAnalyzer_FlagsProblemTimeSlot(t *testing.T) {
	analyzer := NewAnalyzer(zap.NewNop())
	now := time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC) // a Sunday

	// Four Saturday 20:00 doses, three of them missed.
	var history []DoseRecord
	saturdays := []int{8, 15, 22, 29}
	for i, day := range saturdays {
		status := StatusMissed
		if i == 0 {
			status = StatusTaken
		}
		history = append(history, record(time.Date(2024, 6, day, 20, 0, 0, 0, time.UTC), status))
	}
	// Weekday morning doses, all taken.
	for day := 3; day <= 28; day += 2 {
		scheduled := time.Date(2024, 6, day, 8, 0, 0, 0, time.UTC)
		if isWeekend(scheduled) {
			continue
		}
		history = append(history, record(scheduled, StatusTaken))
	}

	insights := analyzer.Analyze(now, history, 30)

	slot, ok := findInsight(insights, CategoryTimeSlot)
	require.True(t, ok, "expected a time-slot insight")
	assert.InDelta(t, 0.75, slot.Metric, 1e-9)
	assert.Contains(t, slot.Description, "evening")

	weekend, ok := findInsight(insights, CategoryWeekdayWeekend)
	require.True(t, ok, "expected a weekday/weekend insight")
	assert.Contains(t, weekend.Description, "weekend")
	assert.InDelta(t, 0.75, weekend.Metric, 1e-9)
}

func TestAnalyzer_TrendImproving(t *testing.T) {
	analyzer := NewAnalyzer(zap.NewNop())
	now := time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC)

	var history []DoseRecord
	// Days 8-14 ago: 40% missed.
	for i := 0; i < 10; i++ {
		status := StatusTaken
		if i < 4 {
			status = StatusMissed
		}
		scheduled := now.AddDate(0, 0, -8-(i%7)).Add(time.Duration(i) * time.Minute)
		history = append(history, record(scheduled, status))
	}
	// Last 7 days: 10% missed.
	for i := 0; i < 10; i++ {
		status := StatusTaken
		if i == 0 {
			status = StatusMissed
		}
		scheduled := now.AddDate(0, 0, -(i % 7)).Add(-time.Duration(i) * time.Minute)
		history = append(history, record(scheduled, status))
	}

	insights := analyzer.Analyze(now, history, 30)

	trend, ok := findInsight(insights, CategoryTrend)
	require.True(t, ok, "expected a trend insight")
	assert.Contains(t, trend.Description, "improving")
	assert.Less(t, trend.Metric, 0.0)
}

func TestAnalyzer_TrendDeclining(t *testing.T) {
	analyzer := NewAnalyzer(zap.NewNop())
	now := time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC)

	var history []DoseRecord
	for i := 0; i < 10; i++ {
		history = append(history, record(now.AddDate(0, 0, -8-(i%7)).Add(time.Duration(i)*time.Minute), StatusTaken))
	}
	for i := 0; i < 10; i++ {
		status := StatusMissed
		if i >= 5 {
			status = StatusTaken
		}
		history = append(history, record(now.AddDate(0, 0, -(i%7)).Add(-time.Duration(i)*time.Minute), status))
	}

	insights := analyzer.Analyze(now, history, 30)

	trend, ok := findInsight(insights, CategoryTrend)
	require.True(t, ok)
	assert.Contains(t, trend.Description, "declining")
	assert.Greater(t, trend.Metric, 0.0)
}

func TestAnalyzer_OrderedBySeverity(t *testing.T) {
	analyzer := NewAnalyzer(zap.NewNop())
	now := time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC)

	var history []DoseRecord
	for i, day := range []int{8, 15, 22, 29} {
		status := StatusMissed
		if i == 0 {
			status = StatusTaken
		}
		history = append(history, record(time.Date(2024, 6, day, 20, 0, 0, 0, time.UTC), status))
	}
	for day := 3; day <= 28; day += 2 {
		scheduled := time.Date(2024, 6, day, 8, 0, 0, 0, time.UTC)
		if isWeekend(scheduled) {
			continue
		}
		history = append(history, record(scheduled, StatusTaken))
	}

	insights := analyzer.Analyze(now, history, 30)
	require.NotEmpty(t, insights)

	for i := 1; i < len(insights); i++ {
		assert.GreaterOrEqual(t, insights[i-1].Severity, insights[i].Severity)
	}
}

func TestAnalyzer_Summarize(t *testing.T) {
	analyzer := NewAnalyzer(zap.NewNop())
	now := time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC)

	history := []DoseRecord{
		record(now.AddDate(0, 0, -1), StatusTaken),
		record(now.AddDate(0, 0, -2), StatusTaken),
		record(now.AddDate(0, 0, -3), StatusDelayed),
		record(now.AddDate(0, 0, -4), StatusMissed),
		record(now.AddDate(0, 0, -5), StatusPending), // ignored
		record(now.AddDate(0, 0, -60), StatusMissed), // outside window
	}

	summary := analyzer.Summarize(now, history, 30)

	assert.Equal(t, 4, summary.TotalDoses)
	assert.Equal(t, 2, summary.Taken)
	assert.Equal(t, 1, summary.Delayed)
	assert.Equal(t, 1, summary.Missed)
	assert.InDelta(t, 0.75, summary.AdherenceRate, 1e-9)
}
