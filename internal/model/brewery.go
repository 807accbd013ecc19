// Package model defines the canonical entities of the label enrichment pipeline.
package model

import "time"

// ValidationStatus tracks how far a record has progressed through verification.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending_validation"
	ValidationScraped   ValidationStatus = "web_scraped"
	ValidationValidated ValidationStatus = "validated"
)

// Lifecycle holds the trust metadata every persisted record carries.
// A record with Confidence 0 is still persisted but flagged for manual review;
// the metadata explains why the record was (or was not) trusted.
type Lifecycle struct {
	DataSource        string           `json:"data_source"`
	Confidence        float64          `json:"confidence"`
	ValidationStatus  ValidationStatus `json:"validation_status"`
	NeedsManualReview bool             `json:"needs_manual_review"`
	ReviewReason      string           `json:"review_reason,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Brewery is the canonical brewery record. Identity is the case-insensitive
// exact name, with a fuzzy fallback (similarity >= 0.7) against existing rows.
type Brewery struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
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
	// LogoVerified is true only when the logo was confirmed by a direct
	// scrape of the brewery's own site, not suggested by a model.
	LogoVerified bool     `json:"logo_verified,omitempty"`
	Products     []string `json:"products,omitempty"`
	Awards       []string `json:"awards,omitempty"`

	Lifecycle
	CreatedAt time.Time `json:"created_at"`
}

// HasContact reports whether the brewery already has a reachable website or
// email, which is the gate deciding whether a web search is still needed.
func (b *Brewery) HasContact() bool {
	return b.Website != "" || b.Email != ""
}

// IsEnriched reports whether the record has been through at least one
// successful verification pass.
func (b *Brewery) IsEnriched() bool {
	return b.ValidationStatus == ValidationScraped || b.ValidationStatus == ValidationValidated
}
