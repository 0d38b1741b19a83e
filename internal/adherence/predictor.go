// internal/adherence/predictor.go
package adherence

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Predictor applies the current model snapshot to candidate doses. The
// snapshot is swapped atomically by the trainer; in-flight predictions may
// observe the prior snapshot, which is fine. The predictor never writes to
// history or model state.
type Predictor struct {
	logger   *zap.Logger
	features *FeatureExtractor
	model    atomic.Pointer[TrainedModel]
}

func NewPredictor(logger *zap.Logger) *Predictor {
	return &Predictor{logger: logger, features: &FeatureExtractor{}}
}

// SetModel publishes a new snapshot. Readers see either the old or the new
// complete model, never a partial one.
func (p *Predictor) SetModel(m *TrainedModel) {
	p.model.Store(m)
}

// CurrentModel returns the active snapshot, or nil before any training.
func (p *Predictor) CurrentModel() *TrainedModel {
	return p.model.Load()
}

// Predict scores a candidate dose against the current snapshot. Returns
// ModelNotTrainedError when no snapshot exists yet.
func (p *Predictor) Predict(medicationID string, scheduled time.Time, history []DoseRecord) (*RiskAssessment, error) {
	model := p.model.Load()
	if model == nil {
		return nil, ErrModelNotTrained()
	}

	features := p.features.Extract(scheduled, medicationID, history)
	values := features.Values()

	probability := sigmoid(dot(model.Weights, values) + model.Bias)

	return &RiskAssessment{
		MedicationID:  medicationID,
		ScheduledTime: scheduled,
		Probability:   probability,
		Tier:          TierForProbability(probability),
		Factors:       topFactors(model.Weights, values, 3),
	}, nil
}

// topFactors ranks the weight*feature terms by absolute magnitude and
// keeps the strongest limit of them, signed.
func topFactors(weights, values [FeatureCount]float64, limit int) []Factor {
	factors := make([]Factor, 0, FeatureCount)
	for j := 0; j < FeatureCount; j++ {
		factors = append(factors, Factor{
			Feature:      FeatureNames[j],
			Contribution: weights[j] * values[j],
		})
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return abs(factors[i].Contribution) > abs(factors[j].Contribution)
	})
	if len(factors) > limit {
		factors = factors[:limit]
	}
	return factors
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
