package research

import (
	"fmt"
	"strings"

	"github.com/seekerlabs/seeker/internal/models"
)

const stepTitleLen = 30

// analysisSteps narrates the research process for the thought-process trace:
// decomposition, per-sub-question result counts and key sources, then the
// fixed analysis and synthesis narrative.
func analysisSteps(query string, subQuestions []string, searchResults map[string][]models.SearchResult) []string {
	steps := []string{
		fmt.Sprintf("1. Initial Query Analysis: Breaking down '%s' into focused sub-questions", query),
		fmt.Sprintf("2. Generated %d sub-questions to explore different aspects of the topic", len(subQuestions)),
	}

	for i, question := range subQuestions {
		results := searchResults[question]
		steps = append(steps,
			fmt.Sprintf("3.%d Researching sub-question %d: '%s'", i+1, i+1, question),
			fmt.Sprintf("   - Found %d relevant sources", len(results)))
		if len(results) > 0 {
			titles := make([]string, 0, 2)
			for _, r := range results[:minInt(2, len(results))] {
				titles = append(titles, truncateRunes(r.Title, stepTitleLen)+"...")
			}
			steps = append(steps, "   - Key sources include: "+strings.Join(titles, ", "))
		}
	}

	steps = append(steps,
		"4. Content Analysis:",
		"   - Extracting and analyzing information from each source",
		"   - Identifying key insights and patterns",
		"   - Cross-referencing information across sources",
		"5. Synthesis:",
		"   - Combining findings from all sub-questions",
		"   - Identifying common themes and unique perspectives",
		"   - Preparing comprehensive response")

	return steps
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
