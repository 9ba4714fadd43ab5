package budget

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// Tokenizer converts text to a token count compatible with the generation
// model's accounting and truncates text on whole-token boundaries.
type Tokenizer interface {
	Count(text string) int
	// Truncate returns text unchanged when it fits within maxTokens,
	// otherwise the decoded prefix of the first maxTokens encoded units.
	// The result is always validly decodable.
	Truncate(text string, maxTokens int) string
}

// NewTokenizer returns a tiktoken-backed tokenizer for the given model,
// falling back to the character estimate when the encoding is unavailable
// (e.g. no BPE data on disk). The service degrades rather than refuses to
// start.
func NewTokenizer(model string, logger *zap.Logger) Tokenizer {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if logger != nil {
			logger.Warn("tiktoken encoding unavailable, using estimate tokenizer",
				zap.String("model", model),
				zap.Error(err))
		}
		return NewEstimateTokenizer()
	}
	return &tiktokenTokenizer{enc: enc}
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

func (t *tiktokenTokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return t.enc.Decode(tokens[:maxTokens])
}

// EstimateTokenizer approximates token accounting as fixed-width rune units.
// It is deterministic and exact under its own accounting, which makes it the
// tokenizer of choice in tests.
type EstimateTokenizer struct {
	runesPerToken int
}

// NewEstimateTokenizer returns the default 4-runes-per-token estimator.
func NewEstimateTokenizer() *EstimateTokenizer {
	return &EstimateTokenizer{runesPerToken: 4}
}

func (t *EstimateTokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	runes := len([]rune(text))
	return (runes + t.runesPerToken - 1) / t.runesPerToken
}

func (t *EstimateTokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	limit := maxTokens * t.runesPerToken
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
