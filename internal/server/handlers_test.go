package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seekerlabs/seeker/internal/llm"
	"github.com/seekerlabs/seeker/internal/models"
	"github.com/seekerlabs/seeker/internal/research"
)

type fakeService struct {
	resp *models.QueryResponse
	err  error
}

func (s *fakeService) Handle(_ context.Context, _ string) (*models.QueryResponse, error) {
	return s.resp, s.err
}

func doResearch(t *testing.T, svc ResearchService, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewResearchHandler(svc, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/research", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Research(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out["error"]
}

func TestResearchSuccess(t *testing.T) {
	svc := &fakeService{resp: &models.QueryResponse{
		ThoughtProcess: models.NewThoughtProcess(),
		Answer:         "the answer",
		Sources:        []models.Source{{Title: "Src", URL: "https://a.example.com"}},
	}}

	rec := doResearch(t, svc, `{"query":"what are EVs?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "the answer", resp.Answer)
	require.Len(t, resp.Sources, 1)
}

func TestResearchInvalidBody(t *testing.T) {
	rec := doResearch(t, &fakeService{}, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rec))
}

func TestResearchMissingQuery(t *testing.T) {
	rec := doResearch(t, &fakeService{}, `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Query is required", decodeError(t, rec))
}

func TestResearchValidationErrorsReturn400WithReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unsafe query", fmt.Errorf("%w: matches harmful pattern", research.ErrUnsafeQuery)},
		{"empty query", research.ErrEmptyQuery},
		{"no safe sub-questions", research.ErrNoSafeSubQuestions},
		{"synthesis failed", research.ErrSynthesisFailed},
		{"unsafe answer", fmt.Errorf("%w: flagged for violence", research.ErrUnsafeAnswer)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doResearch(t, &fakeService{err: tt.err}, `{"query":"q"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.err.Error(), decodeError(t, rec))
		})
	}
}

func TestResearchCapacityExhaustionReportsBusy(t *testing.T) {
	err := fmt.Errorf("%w: status 429", llm.ErrCapacityExceeded)
	rec := doResearch(t, &fakeService{err: err}, `{"query":"q"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, busyMessage, decodeError(t, rec))
}

func TestResearchUnexpectedErrorIsOpaque500(t *testing.T) {
	rec := doResearch(t, &fakeService{err: errors.New("pq: connection reset")}, `{"query":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := decodeError(t, rec)
	assert.Equal(t, internalErrorMessage, msg)
	assert.NotContains(t, msg, "pq:")
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "healthy", out["status"])
}
