package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/config"
)

// DoseRecorder accepts new outcome records and serves the raw history
// behind the reporting endpoints.
type DoseRecorder interface {
	RecordDose(ctx context.Context, r adherence.DoseRecord) (adherence.DoseRecord, error)
	History(ctx context.Context, since time.Time) ([]adherence.DoseRecord, error)
}

// MedicationManager is the CRUD surface over medications.
type MedicationManager interface {
	AddMedication(ctx context.Context, med adherence.Medication) (adherence.Medication, error)
	UpdateMedication(ctx context.Context, med adherence.Medication) error
	DeleteMedication(ctx context.Context, id string) error
	Medication(ctx context.Context, id string) (*adherence.Medication, error)
	Medications(ctx context.Context) ([]adherence.Medication, error)
}

type Server struct {
	config      *config.Config
	logger      *zap.Logger
	router      chi.Router
	httpServer  *http.Server
	engine      *adherence.Engine
	doses       DoseRecorder
	medications MedicationManager
	metrics     *Metrics
	startTime   time.Time
}

func NewServer(cfg *config.Config, logger *zap.Logger, engine *adherence.Engine, doses DoseRecorder, medications MedicationManager) *Server {
	s := &Server{
		config:      cfg,
		logger:      logger,
		router:      chi.NewRouter(),
		engine:      engine,
		doses:       doses,
		medications: medications,
		metrics:     NewMetrics(),
		startTime:   time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Method("GET", "/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Use(s.rateLimitMiddleware())

		r.Route("/medications", func(r chi.Router) {
			r.Get("/", s.handleListMedications)
			r.Post("/", s.handleAddMedication)
			r.Get("/{id}", s.handleGetMedication)
			r.Put("/{id}", s.handleUpdateMedication)
			r.Delete("/{id}", s.handleDeleteMedication)
		})

		r.Post("/doses", s.handleRecordDose)
		r.Get("/doses", s.handleDoseHistory)
		r.Get("/schedule/today", s.handleTodaysSchedule)
		r.Get("/statistics", s.handleStatistics)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/predict", s.handlePredict)
			r.Post("/train", s.handleTrain)
			r.Get("/patterns", s.handlePatterns)
			r.Get("/adherence", s.handleAdherence)
			r.Get("/predictions", s.handleTodaysPredictions)
		})
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("starting server", zap.Int("port", s.config.Server.Port))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":         true,
		"model_trained": s.engine.CurrentModel() != nil,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForError maps the engine's typed errors onto HTTP statuses.
func statusForError(err error) int {
	var (
		invalid      adherence.InvalidTimestampError
		badInput     adherence.InvalidInputError
		notFound     adherence.MedicationNotFoundError
		notTrained   adherence.ModelNotTrainedError
		insufficient adherence.InsufficientDataError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &badInput):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notTrained):
		return http.StatusConflict
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseTimestamp parses an RFC 3339 timestamp, surfacing the engine's
// typed error on bad input.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, adherence.ErrInvalidTimestamp(value)
	}
	return t, nil
}
