// Package chi exposes the triage API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cliniview/triage/internal/domain"
	"github.com/cliniview/triage/internal/tier"
	assessuc "github.com/cliniview/triage/internal/usecase/assess"
	healthuc "github.com/cliniview/triage/internal/usecase/health"
)

const maxSymptomsPerRequest = 50

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// TierReporter reports configured tiers for the model-info endpoint.
type TierReporter interface {
	Pick() (tier.Tier, bool)
	Statuses() []tier.Status
}

// Server holds the HTTP handlers for the triage API.
type Server struct {
	assess        *assessuc.Service
	health        *healthuc.Service
	tiers         TierReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	assess *assessuc.Service,
	health *healthuc.Service,
	tiers TierReporter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		assess: assess,
		health: health,
		tiers:  tiers,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNoSymptoms, http.StatusBadRequest, ErrorResponseCodeNoSymptoms),
		sentinelHandler(domain.ErrMalformedSymptom, http.StatusBadRequest, ErrorResponseCodeMalformedSymptom),
		sentinelHandler(domain.ErrNoBackendAvailable,
			http.StatusServiceUnavailable, ErrorResponseCodeBackendUnavailable),
		sentinelHandler(domain.ErrBackendUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeBackendUnavailable),
		sentinelHandler(domain.ErrPredictionFailed, http.StatusBadGateway, ErrorResponseCodePredictionFailed),
	}
	return s
}

// Routes mounts the API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/symptom-check", s.SymptomCheck)
	r.Get("/api/v1/model-info", s.ModelInfo)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SymptomCheck handles POST /api/v1/symptom-check.
func (s *Server) SymptomCheck(w http.ResponseWriter, r *http.Request) {
	var req SymptomCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Symptoms) > maxSymptomsPerRequest {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Too many symptoms in one request")
		return
	}

	reports, err := req.reports()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	assessment, err := s.assess.Assess(r.Context(), assessuc.Request{
		Reports: reports,
		TopK:    req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assessmentToResponse(assessment))
}

// ModelInfo handles GET /api/v1/model-info.
func (s *Server) ModelInfo(w http.ResponseWriter, r *http.Request) {
	resp := ModelInfoResponse{
		Tiers: tierStatusesToItems(s.tiers.Statuses()),
	}
	if t, ok := s.tiers.Pick(); ok {
		info := modelInfoToBody(t.Info())
		resp.ActiveTier = &info
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNoSymptoms,
		domain.ErrMalformedSymptom,
		domain.ErrNoBackendAvailable,
		domain.ErrBackendUnavailable,
		domain.ErrPredictionFailed,
		domain.ErrInvalidSchema,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
