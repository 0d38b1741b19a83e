package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

type recordDoseRequest struct {
	MedicationID  string `json:"medication_id"`
	ScheduledTime string `json:"scheduled_time"`
	ActualTime    string `json:"actual_time,omitempty"`
	Status        string `json:"status"`
}

type doseResponse struct {
	ID            string     `json:"id"`
	MedicationID  string     `json:"medication_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	ActualTime    *time.Time `json:"actual_time,omitempty"`
	Status        string     `json:"status"`
	DelayMinutes  int        `json:"delay_minutes"`
}

func toDoseResponse(r adherence.DoseRecord) doseResponse {
	return doseResponse{
		ID:            r.ID,
		MedicationID:  r.MedicationID,
		ScheduledTime: r.ScheduledTime,
		ActualTime:    r.ActualTime,
		Status:        string(r.Status),
		DelayMinutes:  r.DelayMinutes,
	}
}

func (s *Server) handleRecordDose(w http.ResponseWriter, r *http.Request) {
	var req recordDoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MedicationID == "" {
		s.writeError(w, adherence.ErrInvalidInput("medication_id is required"))
		return
	}

	status := adherence.Status(req.Status)
	if !status.Terminal() {
		s.writeError(w, adherence.ErrInvalidInput("status must be taken, missed or delayed"))
		return
	}

	scheduled, err := parseTimestamp(req.ScheduledTime)
	if err != nil {
		s.writeError(w, err)
		return
	}

	record := adherence.DoseRecord{
		MedicationID:  req.MedicationID,
		ScheduledTime: scheduled,
		Status:        status,
	}
	if req.ActualTime != "" {
		actual, err := parseTimestamp(req.ActualTime)
		if err != nil {
			s.writeError(w, err)
			return
		}
		record.ActualTime = &actual
	}

	saved, err := s.doses.RecordDose(r.Context(), record)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toDoseResponse(saved))
}

func (s *Server) handleDoseHistory(w http.ResponseWriter, r *http.Request) {
	days := queryDays(r, 30)

	records, err := s.doses.History(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]doseResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toDoseResponse(record))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTodaysSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.engine.TodaysSchedule(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if schedule == nil {
		schedule = []adherence.ScheduledDose{}
	}
	s.writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.Adherence(r.Context(), 7)
	if err != nil {
		s.writeError(w, err)
		return
	}
	meds, err := s.medications.Medications(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_medications":     len(meds),
		"taken_this_week":       summary.Taken,
		"missed_this_week":      summary.Missed,
		"delayed_this_week":     summary.Delayed,
		"total_doses_this_week": summary.TotalDoses,
		"adherence_rate":        summary.AdherenceRate,
	})
}

func queryDays(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}
