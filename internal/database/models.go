package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

// ModelStore persists trained snapshots as append-only rows so a restart
// can warm-start the predictor with the latest one.
type ModelStore struct {
	db *sql.DB
}

func NewModelStore(db *sql.DB) *ModelStore {
	return &ModelStore{db: db}
}

func (s *ModelStore) SaveModel(ctx context.Context, model *adherence.TrainedModel) error {
	weights := make([]float64, adherence.FeatureCount)
	copy(weights, model.Weights[:])

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_snapshots (weights, bias, trained_at, sample_count)
		VALUES ($1, $2, $3, $4)
	`, pq.Array(weights), model.Bias, model.TrainedAt, model.SampleCount)
	if err != nil {
		return adherence.WrapError(err, "save model snapshot")
	}
	return nil
}

// LatestModel returns the most recent snapshot, or nil when none exists.
func (s *ModelStore) LatestModel(ctx context.Context) (*adherence.TrainedModel, error) {
	var model adherence.TrainedModel
	var weights []float64

	err := s.db.QueryRowContext(ctx, `
		SELECT weights, bias, trained_at, sample_count
		FROM model_snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(pq.Array(&weights), &model.Bias, &model.TrainedAt, &model.SampleCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, adherence.WrapError(err, "load model snapshot")
	}

	if len(weights) != adherence.FeatureCount {
		return nil, fmt.Errorf("model snapshot has %d weights, expected %d",
			len(weights), adherence.FeatureCount)
	}
	copy(model.Weights[:], weights)
	return &model, nil
}
