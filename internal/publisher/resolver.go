package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/newsflow-kr/newsflow/internal/config"
)

const blogHost = "blog.naver.com"

// Short canonical form: /<handle>/<post number>, post numbers run 6+ digits.
var postPathRe = regexp.MustCompile(`^/[A-Za-z0-9_.\-]+/\d{6,}$`)

// PageLister exposes the open pages of a browser session.
type PageLister interface {
	Pages() (rod.Pages, error)
}

// Resolver watches the browser for the canonical URL of a just-published
// post. Publishing navigates through several intermediate pages and may
// open the final post in a frame, so every open page and frame is polled.
type Resolver struct {
	session PageLister
	cfg     *config.BrowserConfig
	logger  *slog.Logger
}

// NewResolver creates a Resolver over the given session.
func NewResolver(session PageLister, cfg *config.BrowserConfig, logger *slog.Logger) *Resolver {
	return &Resolver{
		session: session,
		cfg:     cfg,
		logger:  logger.With("component", "url_resolver"),
	}
}

// Resolve polls until a confirmed post URL appears or the deadline
// elapses. On timeout it returns "": callers must not record a blog URL
// from an unconfirmed publish, even when a weaker candidate was seen.
func (r *Resolver) Resolve(ctx context.Context) string {
	deadline := time.Now().Add(r.cfg.ResolveTimeout)
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if u := r.scan(); u != "" {
			r.logger.Info("canonical URL confirmed", "url", u)
			return u
		}

		if time.Now().After(deadline) {
			r.logger.Warn("resolve deadline elapsed", "timeout", r.cfg.ResolveTimeout)
			return ""
		}
		select {
		case <-ctx.Done():
			return ""
		case <-ticker.C:
		}
	}
}

// scan inspects every open page and frame once.
func (r *Resolver) scan() string {
	pages, err := r.session.Pages()
	if err != nil {
		r.logger.Debug("page enumeration failed", "error", err)
		return ""
	}

	for _, page := range pages {
		for _, candidate := range pageAddresses(page) {
			if IsPostURL(candidate) {
				return CanonicalPostURL(candidate)
			}
		}
	}
	return ""
}

// pageAddresses collects a page's current address, the addresses of all
// its frames, and any page-supplied canonical/og:url hint.
func pageAddresses(page *rod.Page) []string {
	var addrs []string

	if info, err := page.Info(); err == nil && info != nil {
		addrs = append(addrs, info.URL)
	}

	if tree, err := (proto.PageGetFrameTree{}).Call(page); err == nil && tree != nil {
		addrs = append(addrs, frameURLs(tree.FrameTree)...)
	}

	if hint := canonicalHint(page); hint != "" {
		addrs = append(addrs, hint)
	}

	return addrs
}

func frameURLs(node *proto.PageFrameTree) []string {
	if node == nil {
		return nil
	}
	urls := []string{node.Frame.URL}
	for _, child := range node.ChildFrames {
		urls = append(urls, frameURLs(child)...)
	}
	return urls
}

// canonicalHint reads the page's og:url or canonical link, when readable.
func canonicalHint(page *rod.Page) string {
	obj, err := page.Eval(`() => {
		const og = document.querySelector('meta[property="og:url"]');
		if (og && og.content) return og.content;
		const link = document.querySelector('link[rel="canonical"]');
		if (link && link.href) return link.href;
		return '';
	}`)
	if err != nil || obj == nil {
		return ""
	}
	return obj.Value.Str()
}

// IsPostURL reports whether raw looks like a final, permanent post URL.
// A redirect back into the write form is never a post URL, even when it
// carries a post-identifier parameter.
func IsPostURL(raw string) bool {
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	// The write-form redirect carries the site's historical misspelling.
	if strings.Contains(lower, "redirect=write") || strings.Contains(lower, "redirct=write") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if queryParam(u, "logNo") != "" {
		return true
	}

	host := strings.ToLower(u.Hostname())
	if host == blogHost || host == "m."+blogHost {
		if postPathRe.MatchString(u.Path) {
			return true
		}
		if strings.Contains(strings.ToLower(u.Path), "postview") {
			return true
		}
	}
	return false
}

// CanonicalPostURL rewrites a blogId+logNo query URL into the platform's
// short canonical path form; anything else is returned as-is.
func CanonicalPostURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	blogID := queryParam(u, "blogId")
	logNo := queryParam(u, "logNo")
	if blogID != "" && logNo != "" {
		return fmt.Sprintf("https://%s/%s/%s", blogHost, blogID, logNo)
	}
	return raw
}

// queryParam looks a query key up case-insensitively.
func queryParam(u *url.URL, key string) string {
	for k, vals := range u.Query() {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
