// internal/adherence/engine.go
package adherence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultAnalysisWindowDays = 30

// ScheduledDose is one candidate dose derived from a medication's daily
// schedule.
type ScheduledDose struct {
	MedicationID  string    `json:"medication_id"`
	Name          string    `json:"name"`
	Dosage        string    `json:"dosage"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

// Engine ties the history store to the trainer, predictor and analyzer.
// Prediction and analysis are pure reads over a history snapshot fetched
// per call; the model snapshot held by the predictor is the only shared
// mutable state and is replaced atomically. trainMu serializes training
// runs; predictions never take it.
type Engine struct {
	logger      *zap.Logger
	history     HistoryStore
	medications MedicationStore
	models      ModelStore

	cfg       TrainerConfig
	trainer   *Trainer
	predictor *Predictor
	analyzer  *Analyzer

	trainMu sync.Mutex
	now     func() time.Time
}

// NewEngine creates the engine. models may be nil when snapshot
// persistence is not configured.
func NewEngine(history HistoryStore, medications MedicationStore, models ModelStore, cfg TrainerConfig, logger *zap.Logger) *Engine {
	return &Engine{
		logger:      logger,
		history:     history,
		medications: medications,
		models:      models,
		cfg:         cfg,
		trainer:     NewTrainer(cfg, logger),
		predictor:   NewPredictor(logger),
		analyzer:    NewAnalyzer(logger),
		now:         time.Now,
	}
}

// SetClock overrides the engine's notion of now. Tests only.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Predict scores the probability that the dose of medicationID scheduled
// at scheduledTime will be missed.
func (e *Engine) Predict(ctx context.Context, medicationID string, scheduledTime time.Time) (*RiskAssessment, error) {
	history, err := e.history.MedicationHistory(ctx, medicationID, time.Time{})
	if err != nil {
		return nil, WrapError(err, "load medication history")
	}
	return e.predictor.Predict(medicationID, scheduledTime, history)
}

// Retrain fits a fresh snapshot on the trailing training window and
// publishes it to the predictor. At most one training run executes at a
// time; concurrent predictions keep using whichever snapshot is current.
func (e *Engine) Retrain(ctx context.Context) (*TrainingResult, error) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	now := e.now()
	since := now.AddDate(0, 0, -e.cfg.WindowDays)

	history, err := e.history.History(ctx, since)
	if err != nil {
		return nil, WrapError(err, "load training history")
	}

	model, err := e.trainer.Train(now, history)
	if err != nil {
		return nil, err
	}

	e.predictor.SetModel(model)

	if e.models != nil {
		if err := e.models.SaveModel(ctx, model); err != nil {
			// The snapshot is already live; persistence is best-effort.
			e.logger.Warn("failed to persist model snapshot", zap.Error(err))
		}
	}

	return &TrainingResult{TrainedAt: model.TrainedAt, SampleCount: model.SampleCount}, nil
}

// RestoreModel loads the latest persisted snapshot into the predictor, if
// one exists. Called once at startup.
func (e *Engine) RestoreModel(ctx context.Context) error {
	if e.models == nil {
		return nil
	}
	model, err := e.models.LatestModel(ctx)
	if err != nil {
		return WrapError(err, "load latest model")
	}
	if model != nil {
		e.predictor.SetModel(model)
		e.logger.Info("restored model snapshot",
			zap.Time("trained_at", model.TrainedAt),
			zap.Int("samples", model.SampleCount))
	}
	return nil
}

// CurrentModel exposes the active snapshot, nil before any training.
func (e *Engine) CurrentModel() *TrainedModel {
	return e.predictor.CurrentModel()
}

// AnalyzePatterns mines the trailing windowDays for behavioural patterns.
func (e *Engine) AnalyzePatterns(ctx context.Context, windowDays int) ([]PatternInsight, error) {
	if windowDays <= 0 {
		windowDays = defaultAnalysisWindowDays
	}
	now := e.now()

	history, err := e.history.History(ctx, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, WrapError(err, "load analysis history")
	}
	return e.analyzer.Analyze(now, history, windowDays), nil
}

// Adherence summarises outcomes over the trailing windowDays.
func (e *Engine) Adherence(ctx context.Context, windowDays int) (AdherenceSummary, error) {
	if windowDays <= 0 {
		windowDays = defaultAnalysisWindowDays
	}
	now := e.now()

	history, err := e.history.History(ctx, now.AddDate(0, 0, -windowDays))
	if err != nil {
		return AdherenceSummary{}, WrapError(err, "load adherence history")
	}
	return e.analyzer.Summarize(now, history, windowDays), nil
}

// TodaysSchedule expands every medication's daily schedule times onto
// today's date.
func (e *Engine) TodaysSchedule(ctx context.Context) ([]ScheduledDose, error) {
	meds, err := e.medications.Medications(ctx)
	if err != nil {
		return nil, WrapError(err, "load medications")
	}

	now := e.now()
	year, month, day := now.Date()

	var doses []ScheduledDose
	for _, med := range meds {
		for _, clock := range med.Schedule {
			t, err := time.Parse("15:04", clock)
			if err != nil {
				return nil, ErrInvalidTimestamp(clock)
			}
			doses = append(doses, ScheduledDose{
				MedicationID:  med.ID,
				Name:          med.Name,
				Dosage:        med.Dosage,
				ScheduledTime: time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, now.Location()),
			})
		}
	}
	return doses, nil
}

// TodaysPredictions scores every dose on today's schedule.
func (e *Engine) TodaysPredictions(ctx context.Context) ([]RiskAssessment, error) {
	schedule, err := e.TodaysSchedule(ctx)
	if err != nil {
		return nil, err
	}

	assessments := make([]RiskAssessment, 0, len(schedule))
	for _, dose := range schedule {
		assessment, err := e.Predict(ctx, dose.MedicationID, dose.ScheduledTime)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *assessment)
	}
	return assessments, nil
}
