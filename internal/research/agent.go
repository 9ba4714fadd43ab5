package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seekerlabs/seeker/internal/budget"
	"github.com/seekerlabs/seeker/internal/llm"
	"github.com/seekerlabs/seeker/internal/metrics"
	"github.com/seekerlabs/seeker/internal/models"
	"github.com/seekerlabs/seeker/internal/search"
	"github.com/seekerlabs/seeker/internal/tracing"
)

const (
	noInformationAnswer   = "No safe and relevant information found for your query."
	analysisSkippedNotice = "Content analysis skipped due to safety concerns"
	analysisUnavailable   = "Unable to analyze content at this time."
)

// Generator is the text-generation boundary. Capacity errors surface as
// llm.ErrCapacityExceeded after the client's own retries are exhausted.
type Generator interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// SafetyGate screens text at each pipeline checkpoint.
type SafetyGate interface {
	CheckQuery(ctx context.Context, query string) (bool, string)
	CheckContent(ctx context.Context, content string) (bool, string)
	FilterSearchResults(ctx context.Context, results []models.SearchResult) []models.SearchResult
}

// Searcher returns ranked web results; empty on provider failure.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []models.SearchResult
}

// Fetcher returns extracted page text; empty on any failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Config bounds one research request.
type Config struct {
	// MaxSubQuestions caps decomposition output.
	MaxSubQuestions int
	// SearchResultsPerQuery caps each sub-question's search.
	SearchResultsPerQuery int
	// MaxTotalSources caps distinct sources across the whole request.
	MaxTotalSources int
	// MaxFindingChars caps extracted text kept per source.
	MaxFindingChars int
	// MaxAnalysisChars caps the content slice sent for per-sub-question
	// analysis.
	MaxAnalysisChars int
}

// Orchestrator runs the research pipeline for one query: sanitize, safety
// gate, decompose, research each sub-question, then synthesize a cited
// answer under the token budget. Each call owns its pipeline state;
// concurrent calls are independent.
type Orchestrator struct {
	generator Generator
	safety    SafetyGate
	searcher  Searcher
	fetcher   Fetcher
	planner   *budget.Planner
	cfg       Config
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline dependencies.
func NewOrchestrator(generator Generator, safety SafetyGate, searcher Searcher, fetcher Fetcher, planner *budget.Planner, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		generator: generator,
		safety:    safety,
		searcher:  searcher,
		fetcher:   fetcher,
		planner:   planner,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle executes the full pipeline for a raw user query.
func (o *Orchestrator) Handle(ctx context.Context, query string) (*models.QueryResponse, error) {
	resp, err := o.handle(ctx, query)
	metrics.ResearchRequests.WithLabelValues(outcomeLabel(resp, err)).Inc()
	return resp, err
}

func (o *Orchestrator) handle(ctx context.Context, query string) (*models.QueryResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "research.handle")
	defer span.End()

	tp := models.NewThoughtProcess()

	// Sanitize and gate the query before anything leaves the process.
	cleanQuery := Sanitize(strings.TrimSpace(query))
	if cleanQuery == "" {
		return nil, ErrEmptyQuery
	}
	if ok, reason := o.checkStage(ctx, "query_safety", func(ctx context.Context) (bool, string) {
		return o.safety.CheckQuery(ctx, cleanQuery)
	}); !ok {
		metrics.SafetyRejections.WithLabelValues("query").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsafeQuery, reason)
	}

	o.logger.Info("generating sub-questions for comprehensive research")
	subQuestions := o.decompose(ctx, cleanQuery)

	safeSubQuestions := make([]string, 0, len(subQuestions))
	for _, q := range subQuestions {
		ok, reason := o.safety.CheckQuery(ctx, q)
		if !ok {
			metrics.SafetyRejections.WithLabelValues("sub_question").Inc()
			o.logger.Warn("sub-question rejected for safety reasons", zap.String("reason", reason))
			continue
		}
		safeSubQuestions = append(safeSubQuestions, q)
	}
	if len(safeSubQuestions) == 0 {
		return nil, ErrNoSafeSubQuestions
	}
	tp.SubQuestions = safeSubQuestions
	metrics.SubQuestionsPerRequest.Observe(float64(len(safeSubQuestions)))
	o.logger.Info("generated sub-questions", zap.Strings("sub_questions", safeSubQuestions))

	findings, sources := o.researchLoop(ctx, safeSubQuestions, tp)

	if len(findings) == 0 {
		return &models.QueryResponse{
			ThoughtProcess: tp,
			Answer:         noInformationAnswer,
			Sources:        []models.Source{},
		}, nil
	}

	tp.AnalysisSteps = analysisSteps(cleanQuery, safeSubQuestions, tp.SearchResults)
	metrics.SourcesPerRequest.Observe(float64(len(sources)))

	o.logger.Info("generating comprehensive summary")
	answer, err := o.synthesize(ctx, cleanQuery, findings, sources)
	if err != nil {
		return nil, err
	}

	if ok, reason := o.checkStage(ctx, "answer_safety", func(ctx context.Context) (bool, string) {
		return o.safety.CheckContent(ctx, answer)
	}); !ok {
		metrics.SafetyRejections.WithLabelValues("answer").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsafeAnswer, reason)
	}

	return &models.QueryResponse{
		ThoughtProcess: tp,
		Answer:         answer,
		Sources:        sources,
	}, nil
}

// decompose asks the model for 2-3 sub-questions. Any generation failure,
// including capacity exhaustion, falls back to the query itself.
func (o *Orchestrator) decompose(ctx context.Context, query string) []string {
	ctx, done := o.stage(ctx, "decompose")
	defer done()

	text, err := o.generator.Complete(ctx, llm.CompletionRequest{
		System:      decomposeSystem,
		User:        decomposePrompt(query),
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		o.logger.Error("error generating sub-questions, falling back to the original query", zap.Error(err))
		return []string{query}
	}
	questions := parseSubQuestions(text, o.cfg.MaxSubQuestions)
	if len(questions) == 0 {
		return []string{query}
	}
	return questions
}

// researchLoop searches, filters and extracts content for each sub-question
// until the global source cap is reached, then analyzes each sub-question's
// findings. Failures inside the loop are absorbed; the loop moves on.
func (o *Orchestrator) researchLoop(ctx context.Context, subQuestions []string, tp *models.ThoughtProcess) ([]models.Finding, []models.Source) {
	ctx, done := o.stage(ctx, "research_loop")
	defer done()

	var findings []models.Finding
	srcs := budget.NewSourceCap(o.cfg.MaxTotalSources)

	for _, subQ := range subQuestions {
		if srcs.Full() {
			o.logger.Info("reached maximum number of sources", zap.Int("max", o.cfg.MaxTotalSources))
			break
		}

		o.logger.Info("researching sub-question", zap.String("sub_question", subQ))
		results := o.searcher.Search(ctx, subQ, o.cfg.SearchResultsPerQuery)
		safeResults := o.safety.FilterSearchResults(ctx, results)
		tp.SearchResults[subQ] = safeResults
		if len(safeResults) == 0 {
			o.logger.Warn("no safe results found for sub-question", zap.String("sub_question", subQ))
			continue
		}

		var subContent []string
		for _, item := range safeResults {
			if srcs.Full() {
				break
			}
			if srcs.Known(item.URL) {
				continue
			}
			if search.SkippableURL(item.URL) {
				o.logger.Info("skipping non-HTML content", zap.String("url", item.URL))
				continue
			}

			text := o.fetcher.Fetch(ctx, item.URL)
			if text == "" {
				continue
			}
			ok, reason := o.safety.CheckContent(ctx, text)
			if !ok {
				metrics.SafetyRejections.WithLabelValues("content").Inc()
				o.logger.Warn("content rejected for safety reasons",
					zap.String("url", item.URL),
					zap.String("reason", reason))
				continue
			}

			content := truncateRunes(text, o.cfg.MaxFindingChars)
			subContent = append(subContent, content)
			findings = append(findings, models.Finding{
				SubQuestion: subQ,
				Content:     content,
				SourceURL:   item.URL,
			})
			srcs.Add(models.Source{Title: item.Title, URL: item.URL})
		}

		if len(subContent) > 0 {
			combined := strings.Join(subContent, "\n")
			if ok, reason := o.safety.CheckContent(ctx, combined); !ok {
				o.logger.Warn("analysis rejected for safety reasons", zap.String("reason", reason))
				tp.ContentSummary[subQ] = analysisSkippedNotice
			} else {
				tp.ContentSummary[subQ] = o.analyze(ctx, subQ, combined)
			}
		}
	}

	return findings, srcs.Sources()
}

// analyze produces a brief per-sub-question analysis. Failures degrade to a
// fixed notice rather than aborting the request.
func (o *Orchestrator) analyze(ctx context.Context, question, content string) string {
	text, err := o.generator.Complete(ctx, llm.CompletionRequest{
		System:      analysisSystem,
		User:        analysisPrompt(question, truncateRunes(content, o.cfg.MaxAnalysisChars)),
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		o.logger.Error("error analyzing findings", zap.String("sub_question", question), zap.Error(err))
		return analysisUnavailable
	}
	return strings.TrimSpace(text)
}

// synthesize builds the token-budgeted synthesis prompt and generates the
// final answer. Capacity exhaustion propagates for the caller to report as
// service-busy; an empty answer is SynthesisFailed.
func (o *Orchestrator) synthesize(ctx context.Context, query string, findings []models.Finding, sources []models.Source) (string, error) {
	ctx, done := o.stage(ctx, "synthesize")
	defer done()

	sourcesText := formatSources(sources)
	overhead := synthesisSystem + synthesisBasePrompt + synthesisRequirements + sourcesText

	blocks := make([]string, 0, len(findings))
	for _, f := range findings {
		blocks = append(blocks, findingBlock(f))
	}
	contentText := strings.Join(o.planner.FitBlocks(overhead, blocks), "\n---\n")

	answer, err := o.generator.Complete(ctx, llm.CompletionRequest{
		System:      synthesisSystem,
		User:        synthesisPrompt(query, sourcesText, contentText),
		Temperature: 0.7,
		MaxTokens:   2500,
	})
	if err != nil {
		if errors.Is(err, llm.ErrCapacityExceeded) {
			return "", err
		}
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", ErrSynthesisFailed
	}
	return answer, nil
}

// stage opens a span and times the stage for the duration histogram.
func (o *Orchestrator) stage(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := tracing.StartSpan(ctx, "research."+name)
	start := time.Now()
	return ctx, func() {
		metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// checkStage runs a safety check under its own span and stage timer.
func (o *Orchestrator) checkStage(ctx context.Context, name string, check func(ctx context.Context) (bool, string)) (bool, string) {
	ctx, done := o.stage(ctx, name)
	defer done()
	return check(ctx)
}

func outcomeLabel(resp *models.QueryResponse, err error) string {
	switch {
	case err == nil && resp != nil && resp.Answer == noInformationAnswer:
		return "no_findings"
	case err == nil:
		return "completed"
	case errors.Is(err, ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, ErrUnsafeQuery):
		return "unsafe_query"
	case errors.Is(err, ErrNoSafeSubQuestions):
		return "no_safe_sub_questions"
	case errors.Is(err, ErrSynthesisFailed):
		return "synthesis_failed"
	case errors.Is(err, ErrUnsafeAnswer):
		return "unsafe_answer"
	case errors.Is(err, llm.ErrCapacityExceeded):
		return "capacity_exceeded"
	default:
		return "error"
	}
}
