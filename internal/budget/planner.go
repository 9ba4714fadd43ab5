package budget

// Planner sizes the synthesis prompt: after reserving tokens for the fixed
// prompt text and the formatted source list, it fills per-finding content
// blocks in encounter order until the budget runs out.
type Planner struct {
	tok Tokenizer
	// maxTokens is the whole-prompt ceiling.
	maxTokens int
	// minTailTokens is the smallest remainder worth a truncated tail block;
	// anything less drops the block instead of including a fragment.
	minTailTokens int
}

// NewPlanner builds a planner over the given tokenizer and ceilings.
func NewPlanner(tok Tokenizer, maxTokens, minTailTokens int) *Planner {
	return &Planner{tok: tok, maxTokens: maxTokens, minTailTokens: minTailTokens}
}

// FitBlocks selects content blocks so that overhead plus the returned blocks
// stay within the token ceiling. Blocks are taken in order; the first block
// that would overflow is truncated to the remainder when at least
// minTailTokens are left, otherwise dropped. Selection stops at the first
// overflow either way.
func (p *Planner) FitBlocks(overhead string, blocks []string) []string {
	available := p.maxTokens - p.tok.Count(overhead)
	if available <= 0 {
		return nil
	}

	var fitted []string
	used := 0
	for _, block := range blocks {
		blockTokens := p.tok.Count(block)
		if used+blockTokens > available {
			remaining := available - used
			if remaining > p.minTailTokens {
				fitted = append(fitted, p.tok.Truncate(block, remaining))
			}
			break
		}
		fitted = append(fitted, block)
		used += blockTokens
	}
	return fitted
}

// Count exposes the underlying tokenizer's accounting.
func (p *Planner) Count(text string) int {
	return p.tok.Count(text)
}
