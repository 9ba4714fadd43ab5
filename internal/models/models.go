package models

// QueryRequest is the inbound research request.
type QueryRequest struct {
	Query string `json:"query"`
}

// SearchResult is one ranked web result returned by the search provider.
// Immutable once created.
type SearchResult struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Snippet      string `json:"snippet"`
	SourceDomain string `json:"source_domain"`
}

// Finding ties extracted, length-capped page text to one sub-question and
// one source URL.
type Finding struct {
	SubQuestion string `json:"sub_question"`
	Content     string `json:"content"`
	SourceURL   string `json:"source_url"`
}

// Source is a cited source in the final response. URLs are unique across
// the whole response.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ThoughtProcess is the structured trace of the research pipeline for one
// request. It is written during the pipeline and read-only once returned.
type ThoughtProcess struct {
	SubQuestions []string `json:"sub_questions"`
	// SearchResults maps each sub-question to its filtered result list.
	// An entry is recorded even when the filtered list is empty.
	SearchResults map[string][]SearchResult `json:"search_results"`
	AnalysisSteps []string                  `json:"analysis_steps"`
	// ContentSummary maps each sub-question to a short analysis of its
	// findings.
	ContentSummary map[string]string `json:"content_summary"`
}

// NewThoughtProcess returns an empty trace with initialized maps.
func NewThoughtProcess() *ThoughtProcess {
	return &ThoughtProcess{
		SubQuestions:   []string{},
		SearchResults:  make(map[string][]SearchResult),
		AnalysisSteps:  []string{},
		ContentSummary: make(map[string]string),
	}
}

// QueryResponse is the terminal artifact returned to the caller.
type QueryResponse struct {
	ThoughtProcess *ThoughtProcess `json:"thought_process"`
	Answer         string          `json:"answer"`
	Sources        []Source        `json:"sources"`
}
