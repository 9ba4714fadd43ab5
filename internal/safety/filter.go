package safety

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/seekerlabs/seeker/internal/models"
)

// Moderator is the external moderation/classification boundary. It returns
// the set of flagged category names for a piece of text.
type Moderator interface {
	Moderate(ctx context.Context, text string) (map[string]bool, error)
}

// injectionAttempt is a fixed heuristic applied to fetched and generated
// content on top of the configurable taxonomy.
var injectionAttempt = regexp.MustCompile(`(?i)(ignore|disregard|bypass).*(instructions|safety|moderation)`)

// Filter screens queries, fetched content and search results against the
// harmful-content taxonomy plus the external moderation verdict.
//
// Failure posture is fail closed everywhere: a moderation transport error
// makes the text unsafe, logged, never raised to the caller.
type Filter struct {
	moderator Moderator
	logger    *zap.Logger

	mu    sync.RWMutex
	rules *ruleset
}

// NewFilter builds a filter from a taxonomy. The taxonomy must compile;
// use DefaultTaxonomy() when no file is configured.
func NewFilter(t Taxonomy, moderator Moderator, logger *zap.Logger) (*Filter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs, err := compile(t)
	if err != nil {
		return nil, err
	}
	return &Filter{moderator: moderator, logger: logger, rules: rs}, nil
}

// Reload swaps in a new taxonomy. Invalid taxonomies are rejected and the
// previous rule set stays active.
func (f *Filter) Reload(t Taxonomy) error {
	rs, err := compile(t)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.rules = rs
	f.mu.Unlock()
	f.logger.Info("safety taxonomy reloaded",
		zap.Int("patterns", len(rs.patterns)),
		zap.Int("categories", len(rs.categories)))
	return nil
}

func (f *Filter) snapshot() *ruleset {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rules
}

// CheckQuery reports whether a query is safe to research.
func (f *Filter) CheckQuery(ctx context.Context, query string) (bool, string) {
	rs := f.snapshot()
	if matched, reason := rs.matchHarmful(query); matched {
		return false, fmt.Sprintf("Query contains potentially harmful content: %s", reason)
	}
	return f.moderate(ctx, query, "Query")
}

// CheckContent reports whether fetched or generated content is safe to use.
func (f *Filter) CheckContent(ctx context.Context, content string) (bool, string) {
	rs := f.snapshot()
	if matched, reason := rs.matchHarmful(content); matched {
		return false, fmt.Sprintf("Content contains potentially harmful material: %s", reason)
	}
	if injectionAttempt.MatchString(content) {
		return false, "Content contains potential prompt injection attempts"
	}
	return f.moderate(ctx, content, "Content")
}

// FilterSearchResults drops results whose title+snippet fail the content
// check, preserving the order of the remainder.
func (f *Filter) FilterSearchResults(ctx context.Context, results []models.SearchResult) []models.SearchResult {
	safe := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		ok, _ := f.CheckContent(ctx, r.Title+" "+r.Snippet)
		if ok {
			safe = append(safe, r)
			continue
		}
		f.logger.Warn("filtered out potentially harmful search result",
			zap.String("title", r.Title),
			zap.String("url", r.URL))
	}
	return safe
}

func (f *Filter) moderate(ctx context.Context, text, kind string) (bool, string) {
	flagged, err := f.moderator.Moderate(ctx, text)
	if err != nil {
		f.logger.Error("moderation check failed, treating as unsafe", zap.Error(err))
		return false, "Error during safety check"
	}
	rs := f.snapshot()
	for category := range rs.categories {
		if flagged[category] {
			return false, fmt.Sprintf("%s flagged for %s", kind, category)
		}
	}
	return true, fmt.Sprintf("%s passed safety checks", kind)
}

func (rs *ruleset) matchHarmful(text string) (bool, string) {
	for _, re := range rs.patterns {
		if re.MatchString(text) {
			return true, fmt.Sprintf("matches harmful pattern: %s", re.String())
		}
	}
	return false, ""
}
