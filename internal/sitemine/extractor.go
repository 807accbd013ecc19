package sitemine

import (
	"context"

	"go.uber.org/zap"

	"github.com/birralog/enrich-cli/internal/model"
	"github.com/birralog/enrich-cli/internal/resilience"
	"github.com/birralog/enrich-cli/internal/scrape"
)

// Extractor crawls one site through the scrape chain and aggregates a single
// direct-site Candidate from everything its miners find.
type Extractor struct {
	chain         *scrape.Chain
	maxPages      int
	maxConcurrent int
}

// NewExtractor creates an Extractor. maxPages bounds the crawl beyond the
// homepage; maxConcurrent bounds parallel page fetches.
func NewExtractor(chain *scrape.Chain, maxPages, maxConcurrent int) *Extractor {
	if maxPages <= 0 {
		maxPages = 15
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Extractor{chain: chain, maxPages: maxPages, maxConcurrent: maxConcurrent}
}

// Extract crawls baseURL and returns an aggregated Candidate. The homepage
// being unreachable is the only fatal condition; individual subpage failures
// are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, baseURL string) (*model.Candidate, error) {
	home, err := e.chain.Scrape(ctx, baseURL)
	if err != nil {
		return nil, resilience.NewUnreachable("direct_site", err)
	}

	pages := []scrape.Page{home.Page}

	links := extractLinks(pageMarkup(home.Page), baseURL, e.maxPages)
	rank := map[string]int{baseURL: -1}
	var crawlURLs []string
	for i, l := range links {
		if e.chain.PathMatcher.IsExcluded(l.URL) {
			continue
		}
		rank[l.URL] = i
		crawlURLs = append(crawlURLs, l.URL)
	}

	fetched := e.chain.ScrapeAll(ctx, crawlURLs, e.maxConcurrent)
	pages = append(pages, fetched...)
	sortPagesByRank(pages, rank)

	zap.L().Debug("sitemine: crawl complete",
		zap.String("site", baseURL),
		zap.Int("linked", len(crawlURLs)),
		zap.Int("fetched", len(pages)),
	)

	return e.aggregate(baseURL, pages), nil
}

// ExtractLogo runs a logo-only pass against a site: homepage markup first,
// then the highest-ranked subpages until one yields a logo.
func (e *Extractor) ExtractLogo(ctx context.Context, baseURL string) string {
	home, err := e.chain.Scrape(ctx, baseURL)
	if err != nil {
		zap.L().Debug("sitemine: logo scrape failed", zap.String("site", baseURL), zap.Error(err))
		return ""
	}
	if logo := FindLogo(pageMarkup(home.Page), baseURL); logo != "" {
		return logo
	}

	for _, l := range extractLinks(pageMarkup(home.Page), baseURL, 3) {
		if e.chain.PathMatcher.IsExcluded(l.URL) {
			continue
		}
		result, err := e.chain.Scrape(ctx, l.URL)
		if err != nil {
			continue
		}
		if logo := FindLogo(pageMarkup(result.Page), l.URL); logo != "" {
			return logo
		}
	}
	return ""
}

// aggregate folds all mined pages into one Candidate. Fields fill first-wins
// in rank order, except the address, where the most complete match wins and
// its page becomes the candidate's SourceURL.
func (e *Extractor) aggregate(baseURL string, pages []scrape.Page) *model.Candidate {
	facts := &model.BreweryFacts{Website: baseURL}
	var (
		bestAddr    AddressMatch
		addrPageURL string
		refs        []string
	)

	for _, p := range pages {
		text := pageText(p)
		markup := pageMarkup(p)
		refs = append(refs, p.URL)

		if matches := MineAddresses(text); len(matches) > 0 && matches[0].Score > bestAddr.Score {
			bestAddr = matches[0]
			addrPageURL = p.URL
		}
		fillString(&facts.Email, MineEmail(text))
		fillString(&facts.PECEmail, MinePEC(text))
		fillString(&facts.Phone, MinePhone(text))
		fillString(&facts.FiscalCode, MineFiscalCode(text))
		fillString(&facts.REACode, MineREACode(text))
		fillString(&facts.ExciseCode, MineExciseCode(text))
		fillString(&facts.History, MineDescription(text))
		fillString(&facts.SizeClass, MineSizeClass(text))
		fillString(&facts.BrewerName, MineBrewerName(text))
		if facts.FoundedYear == 0 {
			facts.FoundedYear = MineFoundedYear(text)
		}
		if facts.SocialLinks == nil {
			facts.SocialLinks = MineSocialLinks(markup)
		}
		if facts.LogoURL == "" {
			if logo := FindLogo(markup, p.URL); logo != "" {
				facts.LogoURL = logo
				facts.LogoVerified = true
			}
		}
		if len(facts.Products) == 0 {
			facts.Products = MineProducts(markup)
		}
		if len(facts.Awards) == 0 {
			facts.Awards = MineAwards(text)
		}
	}

	facts.Address = bestAddr.Address

	return &model.Candidate{
		SourceKind: model.SourceDirectSite,
		Brewery:    facts,
		Confidence: fieldConfidence(facts),
		SourceRefs: refs,
		SourceURL:  addrPageURL,
	}
}

// fieldConfidence is the fraction of mineable field groups that were found,
// over a denominator of 10, capped at 1.0.
func fieldConfidence(f *model.BreweryFacts) float64 {
	found := 0
	for _, ok := range []bool{
		f.Address != "",
		f.Email != "",
		f.Phone != "",
		f.FiscalCode != "",
		f.REACode != "",
		f.PECEmail != "",
		f.FoundedYear != 0,
		f.History != "",
		len(f.SocialLinks) > 0,
		f.LogoURL != "",
		f.ExciseCode != "",
		len(f.Products) > 0,
	} {
		if ok {
			found++
		}
	}
	conf := float64(found) / 10
	if conf > 1 {
		conf = 1
	}
	return conf
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// pageText prefers the pre-extracted text, falling back to stripping markup.
func pageText(p scrape.Page) string {
	if p.Text != "" {
		return p.Text
	}
	return scrape.StripHTML(p.HTML)
}

// pageMarkup returns raw HTML when the scraper kept it; markdown-ish text
// from reader services still carries hrefs, so it serves as a fallback.
func pageMarkup(p scrape.Page) string {
	if p.HTML != "" {
		return p.HTML
	}
	return p.Text
}

func sortPagesByRank(pages []scrape.Page, rank map[string]int) {
	for i := 1; i < len(pages); i++ {
		for j := i; j > 0 && rankOf(pages[j], rank) < rankOf(pages[j-1], rank); j-- {
			pages[j], pages[j-1] = pages[j-1], pages[j]
		}
	}
}

func rankOf(p scrape.Page, rank map[string]int) int {
	if r, ok := rank[p.URL]; ok {
		return r
	}
	return 1 << 20
}
