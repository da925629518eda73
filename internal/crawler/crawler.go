package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"runtime"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/newsflow-kr/newsflow/internal/config"
	"github.com/newsflow-kr/newsflow/internal/extract"
	"github.com/newsflow-kr/newsflow/internal/types"
)

// Listing anchors live inside script-populated news_list blocks. The
// second selector catches pages where the wrap div is absent.
var listSelectors = []string{
	"div.news_list_wrap div.news_list .text_area .title a",
	"div.news_list .title a",
}

// Renderer renders a page in a real browser and returns its markup.
type Renderer interface {
	RenderHTML(ctx context.Context, rawURL string, blockAssets bool) (string, error)
}

// Fetcher retrieves a page over plain HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Crawler collects article links from the listing page and fans detail
// extraction out across a bounded worker pool.
type Crawler struct {
	cfg       *config.CrawlerConfig
	renderer  Renderer
	fetcher   Fetcher
	extractor *extract.Extractor
	logger    *slog.Logger
}

// New creates a Crawler.
func New(cfg *config.Config, renderer Renderer, fetcher Fetcher, logger *slog.Logger) *Crawler {
	return &Crawler{
		cfg:       &cfg.Crawler,
		renderer:  renderer,
		fetcher:   fetcher,
		extractor: extract.NewExtractor(logger),
		logger:    logger.With("component", "crawler"),
	}
}

// FetchLatest renders the listing page, collects up to limit distinct
// article links, and fetches each detail page. A failed listing render
// yields an empty result; a failed detail fetch yields a detail carrying
// only its link's title and URL. Results keep listing order.
func (c *Crawler) FetchLatest(ctx context.Context, limit int) []types.ArticleDetail {
	if limit <= 0 {
		limit = c.cfg.Limit
	}

	html, err := c.renderer.RenderHTML(ctx, c.cfg.ListURL, true)
	if err != nil {
		c.logger.Error("listing render failed", "url", c.cfg.ListURL, "error", err)
		return nil
	}

	links := CollectLinks(html, c.cfg.ListURL, limit)
	c.logger.Info("listing scanned", "links", len(links), "limit", limit)
	if len(links) == 0 {
		return nil
	}

	details := make([]types.ArticleDetail, len(links))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < c.workers(len(links)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				details[i] = c.fetchDetail(ctx, links[i])
			}
		}()
	}

	for i := range links {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return details
}

// workers bounds the pool at min(8, GOMAXPROCS) unless configured.
func (c *Crawler) workers(pending int) int {
	n := c.cfg.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
		if n > 8 {
			n = 8
		}
	}
	if n > pending {
		n = pending
	}
	return n
}

// fetchDetail fetches and extracts one article page. Any failure degrades
// to a detail with only the link fields set.
func (c *Crawler) fetchDetail(ctx context.Context, link types.ArticleLink) types.ArticleDetail {
	body, err := c.fetcher.Fetch(ctx, link.URL)
	if err != nil {
		c.logger.Warn("detail fetch failed", "url", link.URL, "error", err)
		return types.ArticleDetail{Title: link.Title, URL: link.URL}
	}

	d := c.extractor.Extract(string(body))
	d.Title = link.Title
	d.URL = link.URL
	return d
}

// CollectLinks scans listing markup for article anchors, resolves them
// against baseURL, and returns up to limit links deduplicated by
// absolute URL.
func CollectLinks(listingHTML, baseURL string, limit int) []types.ArticleLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	selector := listSelectors[0]
	if doc.Find(selector).Length() == 0 {
		selector = listSelectors[1]
	}

	seen := make(map[string]bool)
	var links []types.ArticleLink

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		resolved.Fragment = ""

		abs := resolved.String()
		if seen[abs] {
			return true
		}
		seen[abs] = true

		links = append(links, types.ArticleLink{
			Title: strings.TrimSpace(sel.Text()),
			URL:   abs,
		})
		return len(links) < limit
	})

	return links
}
