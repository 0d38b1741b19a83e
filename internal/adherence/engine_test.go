// internal/adherence/engine_test.go
package adherence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, store *MemoryStore, now time.Time) *Engine {
	t.Helper()
	engine := NewEngine(store, store, store, DefaultTrainerConfig(), zap.NewNop())
	engine.SetClock(func() time.Time { return now })
	return engine
}

func seedHistory(t *testing.T, store *MemoryStore, records []DoseRecord) {
	t.Helper()
	for _, r := range records {
		_, err := store.RecordDose(context.Background(), r)
		require.NoError(t, err)
	}
}

func TestEngine_PredictBeforeTraining(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, NewMemoryStore(), now)

	_, err := engine.Predict(context.Background(), medID, now.Add(time.Hour))
	require.Error(t, err)

	var notTrained ModelNotTrainedError
	assert.True(t, errors.As(err, &notTrained))
}

func TestEngine_RetrainThenPredict(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	seedHistory(t, store, takenHistory(now, 10))
	engine := newTestEngine(t, store, now)

	result, err := engine.Retrain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, result.SampleCount)
	assert.Equal(t, now, result.TrainedAt)

	assessment, err := engine.Predict(context.Background(), medID, now.Add(20*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.Probability, 0.0)
	assert.LessOrEqual(t, assessment.Probability, 1.0)
	assert.Equal(t, TierLow, assessment.Tier)
	assert.NotEmpty(t, assessment.Factors)
}

func TestEngine_RetrainInsufficientData(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	seedHistory(t, store, takenHistory(now, 5))
	engine := newTestEngine(t, store, now)

	_, err := engine.Retrain(context.Background())

	var insufficient InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 5, insufficient.Records)
}

func TestEngine_RestoreModel(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	seedHistory(t, store, takenHistory(now, 10))

	first := newTestEngine(t, store, now)
	_, err := first.Retrain(context.Background())
	require.NoError(t, err)

	// A fresh engine over the same store picks up the persisted snapshot.
	second := newTestEngine(t, store, now)
	require.Nil(t, second.CurrentModel())
	require.NoError(t, second.RestoreModel(context.Background()))

	model := second.CurrentModel()
	require.NotNil(t, model)
	assert.Equal(t, 10, model.SampleCount)

	_, err = second.Predict(context.Background(), medID, now.Add(time.Hour))
	assert.NoError(t, err)
}

func TestEngine_AnalyzePatterns(t *testing.T) {
	now := time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC)
	store := NewMemoryStore()

	var records []DoseRecord
	for i, day := range []int{8, 15, 22, 29} {
		status := StatusMissed
		if i == 0 {
			status = StatusTaken
		}
		records = append(records, record(time.Date(2024, 6, day, 20, 0, 0, 0, time.UTC), status))
	}
	for day := 2; day <= 28; day += 3 {
		records = append(records, record(time.Date(2024, 6, day, 8, 0, 0, 0, time.UTC), StatusTaken))
	}
	seedHistory(t, store, records)

	engine := newTestEngine(t, store, now)
	insights, err := engine.AnalyzePatterns(context.Background(), 30)
	require.NoError(t, err)
	assert.NotEmpty(t, insights)

	_, ok := findInsight(insights, CategoryTimeSlot)
	assert.True(t, ok)
}

func TestEngine_Adherence(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	history := takenHistory(now, 8)
	history[0].Status = StatusMissed
	history[1].Status = StatusDelayed
	seedHistory(t, store, history)

	engine := newTestEngine(t, store, now)
	summary, err := engine.Adherence(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 8, summary.TotalDoses)
	assert.InDelta(t, 7.0/8.0, summary.AdherenceRate, 1e-9)
}

func TestEngine_TodaysSchedule(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	_, err := store.AddMedication(context.Background(), Medication{
		Name:     "Metformin",
		Dosage:   "500mg",
		Schedule: []string{"08:00", "20:00"},
	})
	require.NoError(t, err)

	engine := newTestEngine(t, store, now)
	schedule, err := engine.TodaysSchedule(context.Background())
	require.NoError(t, err)

	require.Len(t, schedule, 2)
	assert.Equal(t, 8, schedule[0].ScheduledTime.Hour())
	assert.Equal(t, 20, schedule[1].ScheduledTime.Hour())
	assert.Equal(t, now.Day(), schedule[0].ScheduledTime.Day())
}

func TestEngine_TodaysScheduleInvalidClock(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	_, err := store.AddMedication(context.Background(), Medication{
		Name:     "Metformin",
		Schedule: []string{"25:99"},
	})
	require.NoError(t, err)

	engine := newTestEngine(t, store, now)
	_, err = engine.TodaysSchedule(context.Background())

	var invalid InvalidTimestampError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "25:99", invalid.Value)
}

func TestEngine_TodaysPredictions(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()

	med, err := store.AddMedication(context.Background(), Medication{
		Name:     "Metformin",
		Schedule: []string{"08:00"},
	})
	require.NoError(t, err)

	history := takenHistory(now, 10)
	for i := range history {
		history[i].MedicationID = med.ID
	}
	seedHistory(t, store, history)

	engine := newTestEngine(t, store, now)
	_, err = engine.Retrain(context.Background())
	require.NoError(t, err)

	assessments, err := engine.TodaysPredictions(context.Background())
	require.NoError(t, err)
	require.Len(t, assessments, 1)
	assert.Equal(t, med.ID, assessments[0].MedicationID)
}

func TestEngine_PredictionsDoNotBlockTraining(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	seedHistory(t, store, takenHistory(now, 20))
	engine := newTestEngine(t, store, now)

	_, err := engine.Retrain(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := engine.Predict(context.Background(), medID, now.Add(time.Hour))
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Retrain(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
