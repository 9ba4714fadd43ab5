package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitBlocksAllFit(t *testing.T) {
	p := NewPlanner(NewEstimateTokenizer(), 100, 5)
	blocks := []string{"aaaa", "bbbb", "cccc"}

	assert.Equal(t, blocks, p.FitBlocks("overhead", blocks))
}

func TestFitBlocksStopsAtFirstOverflow(t *testing.T) {
	// Budget 20 tokens, no overhead. Each block is 10 tokens (40 runes).
	p := NewPlanner(NewEstimateTokenizer(), 20, 2)
	block := strings.Repeat("x", 40)
	blocks := []string{block, block, block}

	fitted := p.FitBlocks("", blocks)
	assert.Len(t, fitted, 2)
	assert.Equal(t, block, fitted[0])
	assert.Equal(t, block, fitted[1])
}

func TestFitBlocksTruncatesTailWhenRoomRemains(t *testing.T) {
	// Budget 15 tokens: first block uses 10, leaving 5 > minTail 2, so the
	// second block arrives truncated to 5 tokens.
	tok := NewEstimateTokenizer()
	p := NewPlanner(tok, 15, 2)
	block := strings.Repeat("x", 40)

	fitted := p.FitBlocks("", []string{block, block})
	assert.Len(t, fitted, 2)
	assert.Equal(t, 5, tok.Count(fitted[1]))
}

func TestFitBlocksDropsTinyTail(t *testing.T) {
	// Budget 11 tokens: first block uses 10, remainder 1 <= minTail 2, so
	// the second block is dropped rather than included as a fragment.
	p := NewPlanner(NewEstimateTokenizer(), 11, 2)
	block := strings.Repeat("x", 40)

	fitted := p.FitBlocks("", []string{block, block})
	assert.Len(t, fitted, 1)
}

func TestFitBlocksOverheadConsumesEverything(t *testing.T) {
	p := NewPlanner(NewEstimateTokenizer(), 10, 2)
	overhead := strings.Repeat("x", 100)

	assert.Nil(t, p.FitBlocks(overhead, []string{"block"}))
}

func TestFitBlocksEmptyInput(t *testing.T) {
	p := NewPlanner(NewEstimateTokenizer(), 100, 5)

	assert.Empty(t, p.FitBlocks("overhead", nil))
}
