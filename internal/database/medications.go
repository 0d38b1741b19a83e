package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

// MedicationStore manages medications and their daily schedule times.
type MedicationStore struct {
	db *sql.DB
}

func NewMedicationStore(db *sql.DB) *MedicationStore {
	return &MedicationStore{db: db}
}

func (s *MedicationStore) AddMedication(ctx context.Context, med adherence.Medication) (adherence.Medication, error) {
	if med.ID == "" {
		med.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return adherence.Medication{}, adherence.WrapError(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO medications (id, name, dosage) VALUES ($1, $2, $3) RETURNING created_at`,
		med.ID, med.Name, med.Dosage).Scan(&med.CreatedAt)
	if err != nil {
		return adherence.Medication{}, adherence.WrapError(err, "insert medication")
	}

	if err := insertSchedule(ctx, tx, med.ID, med.Schedule); err != nil {
		return adherence.Medication{}, err
	}

	if err := tx.Commit(); err != nil {
		return adherence.Medication{}, adherence.WrapError(err, "commit medication")
	}
	return med, nil
}

// UpdateMedication replaces the medication's details and its schedule.
func (s *MedicationStore) UpdateMedication(ctx context.Context, med adherence.Medication) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return adherence.WrapError(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE medications SET name = $2, dosage = $3 WHERE id = $1`,
		med.ID, med.Name, med.Dosage)
	if err != nil {
		return adherence.WrapError(err, "update medication")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return adherence.ErrMedicationNotFound(med.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedules WHERE medication_id = $1`, med.ID); err != nil {
		return adherence.WrapError(err, "clear schedules")
	}
	if err := insertSchedule(ctx, tx, med.ID, med.Schedule); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteMedication removes the medication, its schedule and its history.
func (s *MedicationStore) DeleteMedication(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return adherence.WrapError(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM dose_history WHERE medication_id = $1`, id); err != nil {
		return adherence.WrapError(err, "delete dose history")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return adherence.WrapError(err, "delete medication")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return adherence.ErrMedicationNotFound(id)
	}

	return tx.Commit()
}

func (s *MedicationStore) Medication(ctx context.Context, id string) (*adherence.Medication, error) {
	var med adherence.Medication
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, dosage, created_at FROM medications WHERE id = $1`, id).
		Scan(&med.ID, &med.Name, &med.Dosage, &med.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, adherence.ErrMedicationNotFound(id)
	}
	if err != nil {
		return nil, adherence.WrapError(err, "query medication")
	}

	med.Schedule, err = s.schedule(ctx, id)
	if err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *MedicationStore) Medications(ctx context.Context) ([]adherence.Medication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, dosage, created_at FROM medications ORDER BY name`)
	if err != nil {
		return nil, adherence.WrapError(err, "query medications")
	}
	defer func() { _ = rows.Close() }()

	var meds []adherence.Medication
	for rows.Next() {
		var med adherence.Medication
		if err := rows.Scan(&med.ID, &med.Name, &med.Dosage, &med.CreatedAt); err != nil {
			return nil, adherence.WrapError(err, "scan medication")
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range meds {
		meds[i].Schedule, err = s.schedule(ctx, meds[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return meds, nil
}

func (s *MedicationStore) schedule(ctx context.Context, medicationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT clock_time FROM schedules WHERE medication_id = $1 ORDER BY position`,
		medicationID)
	if err != nil {
		return nil, adherence.WrapError(err, "query schedule")
	}
	defer func() { _ = rows.Close() }()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, adherence.WrapError(err, "scan schedule")
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func insertSchedule(ctx context.Context, tx *sql.Tx, medicationID string, times []string) error {
	for i, clock := range times {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schedules (medication_id, clock_time, position) VALUES ($1, $2, $3)`,
			medicationID, clock, i); err != nil {
			return adherence.WrapError(err, "insert schedule")
		}
	}
	return nil
}
