package model

import "time"

// Beer is the canonical beer record, scoped to a single brewery.
// Unique per (name, brewery) pair, case-insensitive.
type Beer struct {
	ID        string `json:"id"`
	BreweryID string `json:"brewery_id"`
	Name      string `json:"name"`

	Style        string  `json:"style,omitempty"`
	SubStyle     string  `json:"sub_style,omitempty"`
	ABV          float64 `json:"abv,omitempty"`
	IBU          int     `json:"ibu,omitempty"`
	VolumeML     int     `json:"volume_ml,omitempty"`
	Color        string  `json:"color,omitempty"`
	ServingTempC string  `json:"serving_temp_c,omitempty"`
	Description  string  `json:"description,omitempty"`
	Ingredients  string  `json:"ingredients,omitempty"`
	TastingNotes string  `json:"tasting_notes,omitempty"`
	Pairing      string  `json:"pairing,omitempty"`

	Lifecycle
	CreatedAt time.Time `json:"created_at"`
}

// BeerFacts is the partial field set a single source proposes for a beer.
// Zero values mean "not provided". Tasting data is only ever sourced from
// grounded search or site scraping, never from the OCR guess.
type BeerFacts struct {
	Name         string  `json:"name,omitempty"`
	Style        string  `json:"style,omitempty"`
	SubStyle     string  `json:"sub_style,omitempty"`
	ABV          float64 `json:"abv,omitempty"`
	IBU          int     `json:"ibu,omitempty"`
	VolumeML     int     `json:"volume_ml,omitempty"`
	Color        string  `json:"color,omitempty"`
	ServingTempC string  `json:"serving_temp_c,omitempty"`
	Description  string  `json:"description,omitempty"`
	Ingredients  string  `json:"ingredients,omitempty"`
	TastingNotes string  `json:"tasting_notes,omitempty"`
	Pairing      string  `json:"pairing,omitempty"`
}

// BreweryFacts is the partial field set a single source proposes for a brewery.
type BreweryFacts struct {
	Name        string            `json:"name,omitempty"`
	Website     string            `json:"website,omitempty"`
	Address     string            `json:"address,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	FiscalCode  string            `json:"fiscal_code,omitempty"`
	REACode     string            `json:"rea_code,omitempty"`
	ExciseCode  string            `json:"excise_code,omitempty"`
	PECEmail    string            `json:"pec_email,omitempty"`
	FoundedYear int               `json:"founded_year,omitempty"`
	SizeClass   string            `json:"size_class,omitempty"`
	History     string            `json:"history,omitempty"`
	BrewerName  string            `json:"brewer_name,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	LogoURL     string            `json:"logo_url,omitempty"`
	// LogoVerified marks a logo found by scraping the brewery's own site.
	LogoVerified bool     `json:"logo_verified,omitempty"`
	Products     []string `json:"products,omitempty"`
	Awards       []string `json:"awards,omitempty"`
}
