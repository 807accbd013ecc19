// Package scrape provides chained page fetching for brewery websites: direct
// HTTP first, Jina Reader as fallback when a site blocks bots.
package scrape

import "context"

// Page is a fetched page reduced to plaintext.
type Page struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text"`
	HTML       string `json:"html,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // e.g. "local_http", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
