// internal/adherence/trainer.go
package adherence

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// TrainerConfig holds the fixed hyperparameters for a training run.
type TrainerConfig struct {
	// MinRecords is the minimum number of eligible records required to
	// train at all.
	MinRecords int `yaml:"min_records"`
	// WindowDays bounds how far back eligible records are drawn from.
	WindowDays int `yaml:"window_days"`
	// L2 is the regularization strength applied to the weights (not the
	// bias).
	L2 float64 `yaml:"l2"`
	// LearningRate and Iterations drive the full-batch gradient descent.
	LearningRate float64 `yaml:"learning_rate"`
	Iterations   int     `yaml:"iterations"`
	// CountDelayedAsMiss widens the positive label to Delayed records
	// whose delay exceeds DelayedMissThresholdMinutes.
	CountDelayedAsMiss          bool    `yaml:"count_delayed_as_miss"`
	DelayedMissThresholdMinutes float64 `yaml:"delayed_miss_threshold_minutes"`
}

// DefaultTrainerConfig returns the standard hyperparameters.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		MinRecords:                  10,
		WindowDays:                  60,
		L2:                          0.01,
		LearningRate:                0.3,
		Iterations:                  1000,
		CountDelayedAsMiss:          false,
		DelayedMissThresholdMinutes: 60,
	}
}

// Trainer fits a logistic model over labeled dose outcomes.
type Trainer struct {
	cfg      TrainerConfig
	features *FeatureExtractor
	logger   *zap.Logger
}

func NewTrainer(cfg TrainerConfig, logger *zap.Logger) *Trainer {
	return &Trainer{cfg: cfg, features: &FeatureExtractor{}, logger: logger}
}

// Train fits a fresh TrainedModel snapshot on the eligible records in
// history, evaluated at now. It never mutates an existing snapshot.
// Returns InsufficientDataError when fewer than MinRecords eligible
// records fall inside the training window.
func (t *Trainer) Train(now time.Time, history []DoseRecord) (*TrainedModel, error) {
	windowStart := now.AddDate(0, 0, -t.cfg.WindowDays)

	var eligible []DoseRecord
	for _, r := range history {
		if !r.Status.Terminal() {
			continue
		}
		if r.ScheduledTime.Before(windowStart) || r.ScheduledTime.After(now) {
			continue
		}
		eligible = append(eligible, r)
	}

	if len(eligible) < t.cfg.MinRecords {
		return nil, ErrInsufficientData(len(eligible), t.cfg.MinRecords)
	}

	// Each record's features come from the full history; the extractor
	// only sees what is strictly earlier than the record itself.
	samples := make([][FeatureCount]float64, len(eligible))
	labels := make([]float64, len(eligible))
	for i, r := range eligible {
		samples[i] = t.features.Extract(r.ScheduledTime, r.MedicationID, history).Values()
		labels[i] = t.label(r)
	}

	weights, bias := t.fit(samples, labels)

	model := &TrainedModel{
		Weights:     weights,
		Bias:        bias,
		TrainedAt:   now,
		SampleCount: len(eligible),
	}

	t.logger.Info("trained model",
		zap.Int("samples", model.SampleCount),
		zap.Time("trained_at", model.TrainedAt))

	return model, nil
}

func (t *Trainer) label(r DoseRecord) float64 {
	if r.Status == StatusMissed {
		return 1
	}
	if t.cfg.CountDelayedAsMiss && r.Status == StatusDelayed &&
		delayMinutes(r) > t.cfg.DelayedMissThresholdMinutes {
		return 1
	}
	return 0
}

// fit minimizes L2-regularized log-loss by full-batch gradient descent on
// standardized features, then folds the standardization back into the
// returned weights and bias so the model applies to raw feature vectors.
// Zero initialization plus a fixed schedule makes the result deterministic
// for a given sample set.
func (t *Trainer) fit(samples [][FeatureCount]float64, labels []float64) ([FeatureCount]float64, float64) {
	n := len(samples)
	mean, std := standardize(samples)

	scaled := make([][FeatureCount]float64, n)
	for i, s := range samples {
		for j := 0; j < FeatureCount; j++ {
			scaled[i][j] = (s[j] - mean[j]) / std[j]
		}
	}

	var w [FeatureCount]float64
	var b float64

	for it := 0; it < t.cfg.Iterations; it++ {
		var gw [FeatureCount]float64
		var gb float64

		for i, s := range scaled {
			p := sigmoid(dot(w, s) + b)
			residual := p - labels[i]
			for j := 0; j < FeatureCount; j++ {
				gw[j] += residual * s[j]
			}
			gb += residual
		}

		for j := 0; j < FeatureCount; j++ {
			gw[j] = gw[j]/float64(n) + t.cfg.L2*w[j]
			w[j] -= t.cfg.LearningRate * gw[j]
		}
		b -= t.cfg.LearningRate * (gb / float64(n))
	}

	// Fold the z-score transform into the raw-space parameters:
	// w'·x + b' == w·z + b for z = (x - mean) / std.
	var raw [FeatureCount]float64
	bias := b
	for j := 0; j < FeatureCount; j++ {
		raw[j] = w[j] / std[j]
		bias -= w[j] * mean[j] / std[j]
	}
	return raw, bias
}

// standardize returns per-feature mean and standard deviation; a constant
// feature gets std 1 so its z-scores collapse to 0.
func standardize(samples [][FeatureCount]float64) (mean, std [FeatureCount]float64) {
	n := float64(len(samples))
	for _, s := range samples {
		for j := 0; j < FeatureCount; j++ {
			mean[j] += s[j]
		}
	}
	for j := 0; j < FeatureCount; j++ {
		mean[j] /= n
	}
	for _, s := range samples {
		for j := 0; j < FeatureCount; j++ {
			d := s[j] - mean[j]
			std[j] += d * d
		}
	}
	for j := 0; j < FeatureCount; j++ {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func dot(w, x [FeatureCount]float64) float64 {
	var sum float64
	for j := 0; j < FeatureCount; j++ {
		sum += w[j] * x[j]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
