package research

import (
	"fmt"
	"strings"

	"github.com/seekerlabs/seeker/internal/models"
)

const (
	decomposeSystem = "You are a research assistant that breaks down complex questions into specific, focused sub-questions."
	analysisSystem  = "You are a research analyst that provides concise, insightful analysis of content."
	synthesisSystem = "You are a helpful research assistant that provides detailed, comprehensive summaries based on the given information. Focus on thoroughness and clarity in your responses."

	// Fixed synthesis prompt text counted against the token budget before any
	// finding content is admitted.
	synthesisBasePrompt   = "Based on the following research findings, provide a detailed and thorough answer that:"
	synthesisRequirements = `
1. Directly addresses the original question with a comprehensive analysis
2. Synthesizes information from multiple sources, highlighting key insights
3. Includes specific citations (e.g., "According to [1]...") for all major points
4. Provides detailed comparisons and contrasts where relevant
5. Maintains a professional and objective tone while being thorough
6. Organizes information in clear sections with proper headings
7. Concludes with a summary of key findings and implications`
)

func decomposePrompt(query string) string {
	return fmt.Sprintf(`Break down the following research question into 2-3 specific sub-questions that will help gather comprehensive information.
Focus on different aspects of the topic. Return only the questions, one per line.

Main question: %s

Sub-questions:`, query)
}

func analysisPrompt(question, content string) string {
	return fmt.Sprintf(`Analyze the following content in relation to the question: "%s"

Content:
%s

Provide a brief analysis (2-3 sentences) of how this content relates to the question.
Focus on key insights and relevance.`, question, content)
}

func synthesisPrompt(query, sourcesText, contentText string) string {
	return fmt.Sprintf(`Based on the following research findings, provide a comprehensive and detailed answer to the original question: "%s"

Research findings:
%s

Content from sources:
%s

Please provide a well-structured, detailed answer that:
1. Directly addresses the original question with a comprehensive analysis
2. Synthesizes information from multiple sources, highlighting key insights
3. Includes specific citations (e.g., "According to [1]...") for all major points
4. Provides detailed comparisons and contrasts where relevant
5. Maintains a professional and objective tone while being thorough
6. Organizes information in clear sections with proper headings
7. Concludes with a summary of key findings and implications

Structure your response with clear sections and subsections, using markdown formatting for better readability.`, query, sourcesText, contentText)
}

// formatSources renders the numbered citation list referenced by the answer.
func formatSources(sources []models.Source) string {
	lines := make([]string, 0, len(sources))
	for i, s := range sources {
		lines = append(lines, fmt.Sprintf("[%d] %s (%s)", i+1, s.Title, s.URL))
	}
	return strings.Join(lines, "\n")
}

// findingBlock renders one finding for the synthesis prompt.
func findingBlock(f models.Finding) string {
	return fmt.Sprintf("From %s:\n%s", f.SubQuestion, f.Content)
}

// parseSubQuestions extracts up to max sub-questions from the generated
// text, one per line, stripping list markers.
func parseSubQuestions(text string, max int) []string {
	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		q := strings.TrimSpace(strings.Trim(line, "- "))
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == max {
			break
		}
	}
	return questions
}
