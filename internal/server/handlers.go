package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seekerlabs/seeker/internal/llm"
	"github.com/seekerlabs/seeker/internal/models"
	"github.com/seekerlabs/seeker/internal/research"
)

const (
	internalErrorMessage = "An unexpected error occurred while processing your request. Please try again later."
	busyMessage          = "The service is currently experiencing high demand. Please try again in a few moments."
)

// ResearchService runs the research pipeline for one query.
type ResearchService interface {
	Handle(ctx context.Context, query string) (*models.QueryResponse, error)
}

// ResearchHandler serves the research API.
type ResearchHandler struct {
	service ResearchService
	logger  *zap.Logger
}

// NewResearchHandler creates the handler.
func NewResearchHandler(service ResearchService, logger *zap.Logger) *ResearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchHandler{service: service, logger: logger}
}

// Research handles POST /api/v1/research.
func (h *ResearchHandler) Research(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	resp, err := h.service.Handle(r.Context(), req.Query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps pipeline failures to HTTP statuses: validation
// failures and capacity exhaustion report their description with 400, all
// other failures are opaque 500s.
func (h *ResearchHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case research.IsValidation(err):
		h.logger.Warn("validation or safety error", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrCapacityExceeded):
		h.logger.Error("generation capacity exhausted", zap.Error(err))
		writeError(w, http.StatusBadRequest, busyMessage)
	default:
		h.logger.Error("error in research pipeline", zap.Error(err))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
