package model

// SourceKind discriminates which strategy produced a Candidate.
type SourceKind string

const (
	SourceLocal        SourceKind = "local"
	SourceGrounded     SourceKind = "grounded_search"
	SourceSearchScrape SourceKind = "search_scrape"
	SourceDirectSite   SourceKind = "direct_site"
	SourceFuzzyLocal   SourceKind = "fuzzy_local"
)

// Candidate is a single-source, unverified proposal of entity facts with an
// attached confidence in [0,1]. Candidates are ephemeral: arbitration picks a
// winner and only the merged canonical record is persisted.
type Candidate struct {
	SourceKind SourceKind    `json:"source_kind"`
	Brewery    *BreweryFacts `json:"brewery,omitempty"`
	Beer       *BeerFacts    `json:"beer,omitempty"`
	Confidence float64       `json:"confidence"`
	// SourceRefs lists the URLs that back the proposed facts.
	SourceRefs []string `json:"source_refs,omitempty"`
	// SourceURL is the single page that yielded the address, when known.
	SourceURL string `json:"source_url,omitempty"`
	// BreweryID is set when the candidate points at an existing local record.
	BreweryID string `json:"brewery_id,omitempty"`
	// BeerID is set when the candidate points at an existing local beer.
	BeerID string `json:"beer_id,omitempty"`
}
