package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

// DoseStore records dose outcomes and answers the engine's history range
// queries. Outcome rows are insert-only; a recorded terminal status is
// never rewritten.
type DoseStore struct {
	db               *sql.DB
	toleranceMinutes int
}

func NewDoseStore(db *sql.DB, toleranceMinutes int) *DoseStore {
	return &DoseStore{db: db, toleranceMinutes: toleranceMinutes}
}

// RecordDose inserts an outcome record. A dose reported taken past the
// configured tolerance is stored as delayed with its computed delay.
func (s *DoseStore) RecordDose(ctx context.Context, r adherence.DoseRecord) (adherence.DoseRecord, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status, r.DelayMinutes = adherence.ResolveOutcome(r.ScheduledTime, r.ActualTime, r.Status, s.toleranceMinutes)

	query := `
		INSERT INTO dose_history (id, medication_id, scheduled_time, actual_time, status, delay_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var actual sql.NullTime
	if r.ActualTime != nil {
		actual = sql.NullTime{Time: *r.ActualTime, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.MedicationID, r.ScheduledTime, actual, string(r.Status), r.DelayMinutes)
	if err != nil {
		return adherence.DoseRecord{}, adherence.WrapError(err, "record dose")
	}
	return r, nil
}

// History returns records scheduled at or after since, oldest first. A
// zero since returns everything.
func (s *DoseStore) History(ctx context.Context, since time.Time) ([]adherence.DoseRecord, error) {
	return s.query(ctx, "", since)
}

// MedicationHistory is History restricted to one medication.
func (s *DoseStore) MedicationHistory(ctx context.Context, medicationID string, since time.Time) ([]adherence.DoseRecord, error) {
	return s.query(ctx, medicationID, since)
}

func (s *DoseStore) query(ctx context.Context, medicationID string, since time.Time) ([]adherence.DoseRecord, error) {
	query := `
		SELECT dh.id, dh.medication_id, dh.scheduled_time, dh.actual_time,
		       dh.status, dh.delay_minutes, COALESCE(m.name, ''), COALESCE(m.dosage, '')
		FROM dose_history dh
		LEFT JOIN medications m ON m.id = dh.medication_id
		WHERE ($1 = '' OR dh.medication_id = $1)
		  AND dh.scheduled_time >= $2
		ORDER BY dh.scheduled_time ASC
	`
	rows, err := s.db.QueryContext(ctx, query, medicationID, since)
	if err != nil {
		return nil, adherence.WrapError(err, "query dose history")
	}
	defer func() { _ = rows.Close() }()

	var records []adherence.DoseRecord
	for rows.Next() {
		var r adherence.DoseRecord
		var actual sql.NullTime
		var status string
		if err := rows.Scan(&r.ID, &r.MedicationID, &r.ScheduledTime, &actual,
			&status, &r.DelayMinutes, &r.MedicationName, &r.Dosage); err != nil {
			return nil, adherence.WrapError(err, "scan dose record")
		}
		if actual.Valid {
			t := actual.Time
			r.ActualTime = &t
		}
		r.Status = adherence.Status(status)
		records = append(records, r)
	}
	return records, rows.Err()
}
