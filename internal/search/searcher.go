package search

import (
	"context"
	"fmt"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
	"go.uber.org/zap"

	"github.com/seekerlabs/seeker/internal/metrics"
	"github.com/seekerlabs/seeker/internal/models"
)

// Searcher wraps the Google Custom Search provider. Provider failures are
// swallowed into an empty result list and logged; no search error ever
// reaches the pipeline.
type Searcher struct {
	svc      *customsearch.Service
	engineID string
	logger   *zap.Logger
}

// NewSearcher builds a searcher against the Custom Search API.
// Extra client options (endpoint override, custom HTTP client) are accepted
// for tests.
func NewSearcher(ctx context.Context, apiKey, engineID string, logger *zap.Logger, opts ...option.ClientOption) (*Searcher, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("search api key and engine id are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("init custom search service: %w", err)
	}
	return &Searcher{svc: svc, engineID: engineID, logger: logger}, nil
}

// Search returns up to limit ranked results for the query. Empty on any
// provider error.
func (s *Searcher) Search(ctx context.Context, query string, limit int) []models.SearchResult {
	resp, err := s.svc.Cse.List().
		Q(query).
		Cx(s.engineID).
		Num(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		metrics.SearchErrors.Inc()
		s.logger.Warn("search provider error, returning no results",
			zap.String("query", query),
			zap.Error(err))
		return []models.SearchResult{}
	}

	results := make([]models.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, models.SearchResult{
			Title:        item.Title,
			URL:          item.Link,
			Snippet:      item.Snippet,
			SourceDomain: item.DisplayLink,
		})
	}
	s.logger.Info("search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results
}
