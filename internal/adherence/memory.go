// internal/adherence/memory.go
package adherence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps medications, dose history and model snapshots in
// process memory. It backs tests and the memory storage mode; the
// postgres stores mirror its behaviour.
type MemoryStore struct {
	mu               sync.RWMutex
	toleranceMinutes int
	medications      map[string]Medication
	doses            []DoseRecord
	models           []*TrainedModel
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		toleranceMinutes: 60,
		medications:      make(map[string]Medication),
	}
}

// RecordDose appends an outcome record, assigning an id when missing and
// resolving late taken doses to delayed. Existing records are never
// updated: a terminal status is final.
func (m *MemoryStore) RecordDose(_ context.Context, r DoseRecord) (DoseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ActualTime != nil {
		r.Status, r.DelayMinutes = ResolveOutcome(r.ScheduledTime, r.ActualTime, r.Status, m.toleranceMinutes)
	}
	m.doses = append(m.doses, r)
	return r, nil
}

func (m *MemoryStore) History(_ context.Context, since time.Time) ([]DoseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(since, ""), nil
}

func (m *MemoryStore) MedicationHistory(_ context.Context, medicationID string, since time.Time) ([]DoseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(since, medicationID), nil
}

func (m *MemoryStore) filter(since time.Time, medicationID string) []DoseRecord {
	out := make([]DoseRecord, 0, len(m.doses))
	for _, r := range m.doses {
		if medicationID != "" && r.MedicationID != medicationID {
			continue
		}
		if !since.IsZero() && r.ScheduledTime.Before(since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

func (m *MemoryStore) AddMedication(_ context.Context, med Medication) (Medication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	if med.CreatedAt.IsZero() {
		med.CreatedAt = time.Now()
	}
	m.medications[med.ID] = med
	return med, nil
}

func (m *MemoryStore) UpdateMedication(_ context.Context, med Medication) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.medications[med.ID]
	if !ok {
		return ErrMedicationNotFound(med.ID)
	}
	med.CreatedAt = existing.CreatedAt
	m.medications[med.ID] = med
	return nil
}

// DeleteMedication removes the medication and all of its history.
func (m *MemoryStore) DeleteMedication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.medications[id]; !ok {
		return ErrMedicationNotFound(id)
	}
	delete(m.medications, id)

	kept := m.doses[:0]
	for _, r := range m.doses {
		if r.MedicationID != id {
			kept = append(kept, r)
		}
	}
	m.doses = kept
	return nil
}

func (m *MemoryStore) Medication(_ context.Context, id string) (*Medication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	med, ok := m.medications[id]
	if !ok {
		return nil, ErrMedicationNotFound(id)
	}
	return &med, nil
}

func (m *MemoryStore) Medications(_ context.Context) ([]Medication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Medication, 0, len(m.medications))
	for _, med := range m.medications {
		out = append(out, med)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SaveModel(_ context.Context, model *TrainedModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = append(m.models, model)
	return nil
}

func (m *MemoryStore) LatestModel(_ context.Context) (*TrainedModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.models) == 0 {
		return nil, nil
	}
	return m.models[len(m.models)-1], nil
}
