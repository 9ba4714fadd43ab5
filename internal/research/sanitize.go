package research

import (
	"regexp"
	"strings"
)

var (
	scriptBlocks = regexp.MustCompile(`(?is)<script.*?</script>`)
	markupTags   = regexp.MustCompile(`(?s)<.*?>`)

	// Known prompt-injection phrasings removed from user input before the
	// query reaches any model.
	injectionPhrasings = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore previous instructions`),
		regexp.MustCompile(`(?i)disregard the above`),
		regexp.MustCompile(`(?i)output confidential data`),
		regexp.MustCompile(`(?i)bypass safety measures`),
	}
)

// Sanitize strips markup and known injection phrasings from raw user input.
// The result may be empty; the caller decides whether that is an error.
func Sanitize(text string) string {
	text = scriptBlocks.ReplaceAllString(text, "")
	text = markupTags.ReplaceAllString(text, "")
	for _, re := range injectionPhrasings {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
