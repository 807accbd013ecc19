// Package websearch scrapes public search-engine result pages to find a
// brewery's official website without any paid search API. A primary engine is
// queried first; a secondary engine serves as fallback when the primary
// returns nothing. Bot-detection pages yield an empty list, never an error:
// the caller's cascade continues regardless.
package websearch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/birralog/enrich-cli/internal/scrape"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Engine issues one query against a single search engine.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

const engineUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func newEngineHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// fetchSERP performs the GET and applies block detection. A blocked page is
// not an error: it returns (nil, true, nil) so the engine can give up quietly.
func fetchSERP(ctx context.Context, client *http.Client, reqURL string) (body []byte, blocked bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, eris.Wrap(err, "websearch: create request")
	}
	req.Header.Set("User-Agent", engineUserAgent)
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.6")

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, eris.Wrap(err, "websearch: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, false, eris.Wrap(err, "websearch: read body")
	}

	if isBlocked, _ := scrape.DetectBlock(resp, body); isBlocked {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, eris.Errorf("websearch: status %d", resp.StatusCode)
	}
	return body, false, nil
}

// --- DuckDuckGo (primary) ---

// DuckDuckGo scrapes the HTML-only DuckDuckGo endpoint.
type DuckDuckGo struct {
	baseURL string
	http    *http.Client
}

// DDGOption configures the DuckDuckGo engine.
type DDGOption func(*DuckDuckGo)

// WithDDGBaseURL sets a custom base URL (for testing).
func WithDDGBaseURL(u string) DDGOption {
	return func(d *DuckDuckGo) { d.baseURL = u }
}

// NewDuckDuckGo creates the primary engine.
func NewDuckDuckGo(timeout time.Duration, opts ...DDGOption) *DuckDuckGo {
	d := &DuckDuckGo{
		baseURL: "https://html.duckduckgo.com/html/",
		http:    newEngineHTTPClient(timeout),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

var (
	ddgResultRe  = regexp.MustCompile(`(?is)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`(?is)<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
)

// Search queries DuckDuckGo and decodes its redirect-wrapped result URLs.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := d.baseURL + "?q=" + url.QueryEscape(query)

	body, blocked, err := fetchSERP(ctx, d.http, reqURL)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, nil
	}

	links := ddgResultRe.FindAllStringSubmatch(string(body), -1)
	snippets := ddgSnippetRe.FindAllStringSubmatch(string(body), -1)

	var results []Result
	for i, m := range links {
		dest := DecodeRedirectURL(m[1])
		if dest == "" {
			continue
		}
		r := Result{
			Title: cleanText(m[2]),
			URL:   dest,
		}
		if i < len(snippets) {
			r.Snippet = cleanText(snippets[i][1])
		}
		results = append(results, r)
	}
	return results, nil
}

// --- Bing (fallback) ---

// Bing scrapes the standard Bing results page.
type Bing struct {
	baseURL string
	http    *http.Client
}

// BingOption configures the Bing engine.
type BingOption func(*Bing)

// WithBingBaseURL sets a custom base URL (for testing).
func WithBingBaseURL(u string) BingOption {
	return func(b *Bing) { b.baseURL = u }
}

// NewBing creates the fallback engine.
func NewBing(timeout time.Duration, opts ...BingOption) *Bing {
	b := &Bing{
		baseURL: "https://www.bing.com/search",
		http:    newEngineHTTPClient(timeout),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Bing) Name() string { return "bing" }

var (
	bingResultRe  = regexp.MustCompile(`(?is)<li class="b_algo".*?<h2[^>]*><a[^>]+href="([^"]+)"[^>]*>(.*?)</a></h2>`)
	bingSnippetRe = regexp.MustCompile(`(?is)<li class="b_algo".*?<p[^>]*>(.*?)</p>`)
)

// Search queries Bing.
func (b *Bing) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := b.baseURL + "?q=" + url.QueryEscape(query)

	body, blocked, err := fetchSERP(ctx, b.http, reqURL)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, nil
	}

	links := bingResultRe.FindAllStringSubmatch(string(body), -1)
	snippets := bingSnippetRe.FindAllStringSubmatch(string(body), -1)

	var results []Result
	for i, m := range links {
		dest := DecodeRedirectURL(m[1])
		if dest == "" {
			continue
		}
		r := Result{
			Title: cleanText(m[2]),
			URL:   dest,
		}
		if i < len(snippets) {
			r.Snippet = cleanText(snippets[i][1])
		}
		results = append(results, r)
	}
	return results, nil
}

// DecodeRedirectURL unwraps engine redirect URLs to the true destination.
// DuckDuckGo wraps destinations as //duckduckgo.com/l/?uddg=<escaped>; plain
// absolute URLs pass through untouched. Unresolvable URLs return "".
func DecodeRedirectURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if strings.Contains(u.Host, "duckduckgo.com") {
		if dest := u.Query().Get("uddg"); dest != "" {
			if unescaped, err := url.QueryUnescape(dest); err == nil {
				return unescaped
			}
			return dest
		}
		return ""
	}

	// Bing click-tracking links carry no usable plain destination; drop them.
	if strings.Contains(u.Host, "bing.com") && strings.HasPrefix(u.Path, "/ck/") {
		return ""
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		return raw
	}
	return ""
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ",
)

// cleanText strips markup and entities from a SERP fragment.
func cleanText(s string) string {
	s = regexp.MustCompile(`<[^>]+>`).ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
