package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

type medicationRequest struct {
	Name     string   `json:"name"`
	Dosage   string   `json:"dosage"`
	Schedule []string `json:"schedule"`
}

func (req *medicationRequest) validate() error {
	if req.Name == "" {
		return adherence.ErrInvalidInput("name is required")
	}
	for _, clock := range req.Schedule {
		if _, err := time.Parse("15:04", clock); err != nil {
			return adherence.ErrInvalidTimestamp(clock)
		}
	}
	return nil
}

type medicationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Schedule  []string  `json:"schedule"`
	CreatedAt time.Time `json:"created_at"`
}

func toMedicationResponse(med adherence.Medication) medicationResponse {
	return medicationResponse{
		ID:        med.ID,
		Name:      med.Name,
		Dosage:    med.Dosage,
		Schedule:  med.Schedule,
		CreatedAt: med.CreatedAt,
	}
}

func (s *Server) handleListMedications(w http.ResponseWriter, r *http.Request) {
	meds, err := s.medications.Medications(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]medicationResponse, 0, len(meds))
	for _, med := range meds {
		out = append(out, toMedicationResponse(med))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddMedication(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, err)
		return
	}

	med, err := s.medications.AddMedication(r.Context(), adherence.Medication{
		Name:     req.Name,
		Dosage:   req.Dosage,
		Schedule: req.Schedule,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMedicationResponse(med))
}

func (s *Server) handleGetMedication(w http.ResponseWriter, r *http.Request) {
	med, err := s.medications.Medication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMedicationResponse(*med))
}

func (s *Server) handleUpdateMedication(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, err)
		return
	}

	err := s.medications.UpdateMedication(r.Context(), adherence.Medication{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Dosage:   req.Dosage,
		Schedule: req.Schedule,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteMedication(w http.ResponseWriter, r *http.Request) {
	if err := s.medications.DeleteMedication(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
