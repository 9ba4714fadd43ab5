package budget

import "github.com/seekerlabs/seeker/internal/models"

// SourceCap enforces the per-request ceiling on distinct source URLs and
// owns the no-duplicate-URL invariant of the final source list.
type SourceCap struct {
	max   int
	seen  map[string]bool
	order []models.Source
}

// NewSourceCap returns a tracker admitting at most max distinct URLs.
func NewSourceCap(max int) *SourceCap {
	return &SourceCap{max: max, seen: make(map[string]bool)}
}

// Full reports whether the ceiling has been reached.
func (c *SourceCap) Full() bool {
	return len(c.order) >= c.max
}

// Known reports whether the URL is already registered.
func (c *SourceCap) Known(url string) bool {
	return c.seen[url]
}

// Add registers a source. Duplicates and additions past the ceiling are
// rejected.
func (c *SourceCap) Add(s models.Source) bool {
	if c.Full() || c.seen[s.URL] {
		return false
	}
	c.seen[s.URL] = true
	c.order = append(c.order, s)
	return true
}

// Sources returns the admitted sources in registration order.
func (c *SourceCap) Sources() []models.Source {
	return c.order
}

// Count returns the number of admitted sources.
func (c *SourceCap) Count() int {
	return len(c.order)
}
