// internal/adherence/store.go
package adherence

import (
	"context"
	"math"
	"time"
)

// HistoryStore is the engine's read view of recorded dose outcomes. The
// engine never writes through it.
type HistoryStore interface {
	// History returns all records scheduled at or after since, any
	// medication. A zero since means everything.
	History(ctx context.Context, since time.Time) ([]DoseRecord, error)
	// MedicationHistory is History restricted to one medication.
	MedicationHistory(ctx context.Context, medicationID string, since time.Time) ([]DoseRecord, error)
}

// MedicationStore lists the medications whose schedules drive today's
// candidate doses.
type MedicationStore interface {
	Medications(ctx context.Context) ([]Medication, error)
	Medication(ctx context.Context, id string) (*Medication, error)
}

// ModelStore persists trained snapshots so a restart can warm-start the
// predictor. Snapshots are append-only.
type ModelStore interface {
	SaveModel(ctx context.Context, model *TrainedModel) error
	// LatestModel returns the most recent snapshot, or nil when none has
	// been saved.
	LatestModel(ctx context.Context) (*TrainedModel, error)
}

// ResolveOutcome finalizes the status and delay for a dose being recorded.
// A dose reported taken more than toleranceMinutes after schedule is
// reclassified Delayed; taken early or within tolerance stays Taken.
func ResolveOutcome(scheduled time.Time, actual *time.Time, status Status, toleranceMinutes int) (Status, int) {
	if actual == nil {
		return status, 0
	}
	delay := int(math.Round(actual.Sub(scheduled).Minutes()))
	if status == StatusTaken && delay > toleranceMinutes {
		return StatusDelayed, delay
	}
	return status, delay
}
