package model

// LabelGuess is the noisy, OCR/vision-derived reading of a bottle label.
// It is the immutable input to an enrichment job. Every field is advisory:
// the beer name is usually close but can have 1-2 flipped characters, the
// brewery hint may be absent or wrong, and the auxiliary hints are never
// treated as authoritative tasting data.
type LabelGuess struct {
	BeerName        string  `json:"beer_name"`
	BreweryNameHint string  `json:"brewery_name_hint,omitempty"`
	ABVHint         float64 `json:"abv_hint,omitempty"`
	StyleHint       string  `json:"style_hint,omitempty"`
	VolumeHintML    int     `json:"volume_hint_ml,omitempty"`
	YearHint        int     `json:"year_hint,omitempty"`
}
