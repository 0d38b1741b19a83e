// internal/api/intelligence.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

type predictRequest struct {
	MedicationID  string `json:"medication_id"`
	ScheduledTime string `json:"scheduled_time"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MedicationID == "" {
		s.writeError(w, adherence.ErrInvalidInput("medication_id is required"))
		return
	}

	scheduled, err := parseTimestamp(req.ScheduledTime)
	if err != nil {
		s.writeError(w, err)
		return
	}

	assessment, err := s.engine.Predict(r.Context(), req.MedicationID, scheduled)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.metrics.Predictions.WithLabelValues(string(assessment.Tier)).Inc()
	s.writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Retrain(r.Context())
	if err != nil {
		s.metrics.TrainingRuns.WithLabelValues("failure").Inc()
		s.writeError(w, err)
		return
	}

	s.metrics.TrainingRuns.WithLabelValues("success").Inc()
	s.metrics.TrainingSamples.Set(float64(result.SampleCount))
	s.writeJSON(w, http.StatusOK, result)
}

type insightResponse struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Metric      float64 `json:"metric"`
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	insights, err := s.engine.AnalyzePatterns(r.Context(), queryDays(r, 30))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]insightResponse, 0, len(insights))
	for _, in := range insights {
		out = append(out, insightResponse{
			Category:    string(in.Category),
			Description: in.Description,
			Metric:      in.Metric,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdherence(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.Adherence(r.Context(), queryDays(r, 30))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTodaysPredictions(w http.ResponseWriter, r *http.Request) {
	assessments, err := s.engine.TodaysPredictions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if assessments == nil {
		assessments = []adherence.RiskAssessment{}
	}

	for _, a := range assessments {
		s.metrics.Predictions.WithLabelValues(string(a.Tier)).Inc()
	}
	s.writeJSON(w, http.StatusOK, assessments)
}
