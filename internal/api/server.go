// Package api exposes the scheduler over HTTP: attempt recording, study
// plans, mastery snapshots, Excel progress reports, and a websocket stream
// of plan updates.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/adolago/studypath/internal/curriculum"
	"github.com/adolago/studypath/internal/engine"
	"github.com/adolago/studypath/internal/mastery"
	"github.com/adolago/studypath/internal/report"
)

// Health is the readiness probe contract the backing services implement.
type Health interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the HTTP server.
type Config struct {
	Engine    *engine.Engine
	Graph     *curriculum.Graph
	TokenHash string // bcrypt hash; empty disables auth
	PlanLimit int    // default tasks per plan, defaults to 10
	DB        Health // optional readiness probe
	Cache     Health // optional readiness probe
}

// Server handles HTTP requests.
type Server struct {
	engine    *engine.Engine
	graph     *curriculum.Graph
	tokenHash string
	planLimit int
	db        Health
	cache     Health
	now       func() time.Time
}

// New creates the HTTP server.
func New(cfg Config) *Server {
	limit := cfg.PlanLimit
	if limit <= 0 {
		limit = 10
	}
	return &Server{
		engine:    cfg.Engine,
		graph:     cfg.Graph,
		tokenHash: cfg.TokenHash,
		planLimit: limit,
		db:        cfg.DB,
		cache:     cfg.Cache,
		now:       time.Now,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("POST /v1/learners/{id}/attempts", s.requireAuth(s.handleRecordAttempt))
	mux.HandleFunc("GET /v1/learners/{id}/plan", s.handlePlan)
	mux.HandleFunc("GET /v1/learners/{id}/mastery", s.handleMastery)
	mux.HandleFunc("GET /v1/learners/{id}/report.xlsx", s.requireAuth(s.handleReport))
	mux.HandleFunc("GET /v1/learners/{id}/stream", s.handleStream)
	return mux
}

// attemptRequest is the POST body for recording an attempt. The learner
// comes from the URL.
type attemptRequest struct {
	QuestionID   string `json:"question_id"`
	TopicID      string `json:"topic_id"`
	Correct      bool   `json:"correct"`
	TimeMs       int    `json:"time_ms"`
	ErrorKind    string `json:"error_kind,omitempty"`
	SupportLevel int    `json:"support_level,omitempty"`
}

func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.engine.RecordAttempt(r.Context(), mastery.Attempt{
		LearnerID:    r.PathValue("id"),
		QuestionID:   req.QuestionID,
		TopicID:      req.TopicID,
		Correct:      req.Correct,
		TimeMs:       req.TimeMs,
		ErrorKind:    req.ErrorKind,
		SupportLevel: req.SupportLevel,
	})
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownTopic), errors.Is(err, engine.ErrInvalidAttempt):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("failed to record attempt", "learner_id", r.PathValue("id"), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record attempt")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	limit := s.planLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	plan, err := s.engine.NextTasks(r.Context(), r.PathValue("id"), limit, r.URL.Query().Get("topic"))
	if err != nil {
		slog.Error("failed to build plan", "learner_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build plan")
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleMastery(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.MasterySnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.Error("failed to load mastery", "learner_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load mastery")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	learnerID := r.PathValue("id")

	plan, err := s.engine.NextTasks(r.Context(), learnerID, s.planLimit, "")
	if err != nil {
		slog.Error("failed to build plan for report", "learner_id", learnerID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	records, err := s.engine.MasterySnapshot(r.Context(), learnerID)
	if err != nil {
		slog.Error("failed to load mastery for report", "learner_id", learnerID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="progress-`+learnerID+`.xlsx"`)
	if err := report.Write(w, report.Input{
		LearnerID: learnerID,
		Plan:      plan,
		Graph:     s.graph,
		Records:   records,
		Now:       s.now(),
	}); err != nil {
		// Headers are gone; all we can do is log.
		slog.Error("failed to stream report", "learner_id", learnerID, "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	for name, probe := range map[string]Health{"database": s.db, "cache": s.cache} {
		if probe == nil {
			continue
		}
		if err := probe.HealthCheck(ctx); err != nil {
			slog.Warn("readiness probe failed", "dependency", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": name,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
