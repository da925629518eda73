package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/newsflow-kr/newsflow/internal/types"
)

// Article containers tried in priority order when locating the body.
// The news site has shipped several article layouts over the years and
// older pieces still use the legacy containers.
const articleContainers = ".article, #article, .article_wrap, #CmAdContent, .content, .news, .article-view"

const dateXPath = "//div[contains(@class,'date')]"

// markerRule binds a literal text marker to the record field it feeds.
// Patterns capture everything after the marker up to a line break, e.g.
// "[전화] 02-398-8585" yields "02-398-8585".
type markerRule struct {
	marker string
	field  string
	re     *regexp.Regexp
}

const (
	fieldPhone = "phone"
	fieldEmail = "email"
)

var markerRules = compileMarkerRules([]markerRule{
	{marker: "[전화]", field: fieldPhone},
	{marker: "[메일]", field: fieldEmail},
})

func compileMarkerRules(rules []markerRule) []markerRule {
	for i := range rules {
		rules[i].re = regexp.MustCompile(regexp.QuoteMeta(rules[i].marker) + `\s*([^\n\r<]+)`)
	}
	return rules
}

var categoryRe = regexp.MustCompile(`\[([^\[\]]+)\]`)

// Extractor pulls structured fields out of raw article markup.
// Every field is independently best-effort: a miss yields an empty string,
// never an error.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a detail extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// Extract parses article markup into an ArticleDetail. The returned
// detail carries no title or URL; the caller attributes it to its link.
func (e *Extractor) Extract(rawHTML string) types.ArticleDetail {
	var d types.ArticleDetail

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		e.logger.Debug("html parse failed", "error", err)
		return d
	}

	d.PublishedAt = e.extractDate(doc, rawHTML)
	d.Category = extractCategory(doc)
	d.Content = extractBody(doc)

	markers := applyMarkerRules(pageText(doc))
	d.Phone = markers[fieldPhone]

	rep := InferReporter(d.Content)
	d.ReporterName = rep.Name
	d.ReporterEmail = rep.Email
	if d.ReporterEmail == "" {
		// The [메일] marker is a contact address for tips, used only when
		// no byline email was found.
		d.ReporterEmail = markers[fieldEmail]
	}

	return d
}

// extractDate returns the first date-container text. The CSS path covers
// the current layout; the XPath probe catches variants where the class
// list carries extra tokens.
func (e *Extractor) extractDate(doc *goquery.Document, rawHTML string) string {
	if text := strings.TrimSpace(doc.Find("div.date").First().Text()); text != "" {
		return text
	}

	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	if n := htmlquery.FindOne(node, dateXPath); n != nil {
		return strings.TrimSpace(htmlquery.InnerText(n))
	}
	return ""
}

// extractCategory returns the first bracketed token in the page title,
// e.g. "[경제] 금리 동결..." yields "경제".
func extractCategory(doc *goquery.Document) string {
	title := doc.Find("title").First().Text()
	if m := categoryRe.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractBody selects the text of the longest span on the page as the
// article body. Spans inside a known article container are preferred;
// when no container matches, every span in the document is a candidate.
// There is no structured content node to target, so longest-span is a
// heuristic proxy for the main content.
func extractBody(doc *goquery.Document) string {
	scope := doc.Selection
	if container := doc.Find(articleContainers).First(); container.Length() > 0 && container.Find("span").Length() > 0 {
		scope = container
	}

	var best string
	scope.Find("span").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > len(best) {
			best = text
		}
	})
	return best
}

// pageText flattens the document to text with one text node per line.
// The line breaks matter: marker captures run to end-of-line, so joining
// without them would let a capture bleed into the next element's text.
func pageText(doc *goquery.Document) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range doc.Nodes {
		walk(node)
	}
	return sb.String()
}

// applyMarkerRules evaluates the marker table against the full page text.
func applyMarkerRules(text string) map[string]string {
	out := make(map[string]string, len(markerRules))
	for _, rule := range markerRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			out[rule.field] = strings.TrimSpace(m[1])
		}
	}
	return out
}
