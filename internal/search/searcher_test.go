package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func newFakeSearchService(t *testing.T, handler http.HandlerFunc) (*Searcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	s, err := NewSearcher(context.Background(), "test-key", "test-cx", zap.NewNop(),
		option.WithEndpoint(srv.URL))
	require.NoError(t, err)
	return s, srv
}

func TestNewSearcherRequiresCredentials(t *testing.T) {
	_, err := NewSearcher(context.Background(), "", "cx", zap.NewNop())
	assert.Error(t, err)

	_, err = NewSearcher(context.Background(), "key", "", zap.NewNop())
	assert.Error(t, err)
}

func TestSearchMapsResults(t *testing.T) {
	s, srv := newFakeSearchService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ev safety", r.URL.Query().Get("q"))
		assert.Equal(t, "test-cx", r.URL.Query().Get("cx"))
		assert.Equal(t, "3", r.URL.Query().Get("num"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{
				{"title": "EV Safety Guide", "link": "https://a.example.com", "snippet": "crash ratings", "displayLink": "a.example.com"},
				{"title": "Range Report", "link": "https://b.example.com", "snippet": "range data", "displayLink": "b.example.com"},
			},
		})
	})
	defer srv.Close()

	results := s.Search(context.Background(), "ev safety", 3)
	require.Len(t, results, 2)
	assert.Equal(t, "EV Safety Guide", results[0].Title)
	assert.Equal(t, "https://a.example.com", results[0].URL)
	assert.Equal(t, "crash ratings", results[0].Snippet)
	assert.Equal(t, "a.example.com", results[0].SourceDomain)
}

func TestSearchProviderErrorReturnsEmpty(t *testing.T) {
	s, srv := newFakeSearchService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	results := s.Search(context.Background(), "anything", 3)
	assert.Empty(t, results)
}

func TestSearchNoItems(t *testing.T) {
	s, srv := newFakeSearchService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	assert.Empty(t, s.Search(context.Background(), "anything", 3))
}
