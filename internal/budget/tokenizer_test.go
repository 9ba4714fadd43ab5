package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokenizerCount(t *testing.T) {
	tok := NewEstimateTokenizer()

	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, 1, tok.Count("abc"))
	assert.Equal(t, 1, tok.Count("abcd"))
	assert.Equal(t, 2, tok.Count("abcde"))
	assert.Equal(t, 25, tok.Count(strings.Repeat("x", 100)))
}

func TestTruncateWithinLimitIsIdentity(t *testing.T) {
	tok := NewEstimateTokenizer()
	text := "short text"

	assert.Equal(t, text, tok.Truncate(text, 100))
}

func TestTruncateRespectsLimit(t *testing.T) {
	tok := NewEstimateTokenizer()
	text := strings.Repeat("word ", 200)

	for _, limit := range []int{1, 10, 50, 100} {
		got := tok.Truncate(text, limit)
		assert.LessOrEqual(t, tok.Count(got), limit, "limit %d", limit)
	}
}

func TestTruncateIsIdempotent(t *testing.T) {
	tok := NewEstimateTokenizer()
	text := strings.Repeat("the quick brown fox ", 100)

	once := tok.Truncate(text, 37)
	twice := tok.Truncate(once, 37)
	assert.Equal(t, once, twice)
}

func TestTruncateZeroLimit(t *testing.T) {
	tok := NewEstimateTokenizer()

	assert.Equal(t, "", tok.Truncate("anything", 0))
	assert.Equal(t, "", tok.Truncate("anything", -1))
}

func TestTruncateMultibyteRunes(t *testing.T) {
	tok := NewEstimateTokenizer()
	text := strings.Repeat("日本語テキスト", 50)

	got := tok.Truncate(text, 10)
	assert.LessOrEqual(t, tok.Count(got), 10)
	// Truncation must never split a rune.
	assert.True(t, strings.HasPrefix(text, got))
}
