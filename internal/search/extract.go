package search

import (
	"context"
	"fmt"
	stdhtml "html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/seekerlabs/seeker/internal/metrics"
)

const (
	// rawFallbackMaxChars caps the last-resort raw body fallback.
	rawFallbackMaxChars = 2000
	// minArticleChars is the smallest DOM extraction considered a real
	// article rather than boilerplate.
	minArticleChars = 200
	// maxBodyBytes bounds how much of a page is read.
	maxBodyBytes = 2 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// strategy converts a fetched HTML body to plain text. Empty output means
// the strategy failed and the next one is tried.
type strategy struct {
	name    string
	extract func(body string) string
}

// Extractor produces best-effort plain text for a URL. The page is fetched
// once; extraction strategies run in priority order over the body and the
// first non-empty result wins. Extraction never returns an error to the
// caller — failures degrade to an empty string.
type Extractor struct {
	httpClient *http.Client
	strategies []strategy
	logger     *zap.Logger
}

// NewExtractor builds the default three-tier extractor: DOM article
// extraction, regex boilerplate stripping, then the capped raw fallback.
func NewExtractor(timeout time.Duration, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: timeout},
		strategies: []strategy{
			{name: "article", extract: extractArticle},
			{name: "boilerplate", extract: stripBoilerplate},
			{name: "raw", extract: rawFallback},
		},
		logger: logger,
	}
}

// Fetch downloads the page and extracts text. Empty string on any failure.
func (e *Extractor) Fetch(ctx context.Context, url string) string {
	body, err := e.download(ctx, url)
	if err != nil {
		e.logger.Warn("page fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}

	for _, s := range e.strategies {
		text := s.extract(body)
		if strings.TrimSpace(text) == "" {
			metrics.ExtractionAttempts.WithLabelValues(s.name, "miss").Inc()
			e.logger.Debug("extraction strategy produced no text",
				zap.String("strategy", s.name),
				zap.String("url", url))
			continue
		}
		metrics.ExtractionAttempts.WithLabelValues(s.name, "hit").Inc()
		return text
	}
	return ""
}

func (e *Extractor) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SkippableURL reports whether the link points at a non-HTML document that
// should never be fetched (recognized by extension).
func SkippableURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasSuffix(lower, ".pdf") ||
		strings.HasSuffix(lower, ".doc") ||
		strings.HasSuffix(lower, ".docx")
}

// skipTags are elements whose text never belongs to article content.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "svg": true, "iframe": true, "button": true,
}

// harvestTags are the block elements whose text makes up an article.
var harvestTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "li": true, "blockquote": true, "pre": true,
}

// extractArticle walks the DOM and harvests block-level text. It rejects
// pages whose harvested text is too short to be an article, handing them to
// the boilerplate stripper instead.
func extractArticle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if harvestTags[n.Data] {
				if text := nodeText(n); text != "" {
					lines = append(lines, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(lines, "\n")
	if len(text) < minArticleChars {
		return ""
	}
	return text
}

// nodeText collects the trimmed text of a node's subtree, skipping non-content
// elements.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Pre-compiled expressions for the boilerplate stripper.
var (
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBreaks   = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripBoilerplate is the secondary extractor: regex tag stripping with
// block-element line breaks preserved.
func stripBoilerplate(body string) string {
	content := scriptTag.ReplaceAllString(body, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = blockBreaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = stdhtml.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// rawFallback returns the leading slice of the raw body.
func rawFallback(body string) string {
	if len(body) > rawFallbackMaxChars {
		return body[:rawFallbackMaxChars]
	}
	return body
}
