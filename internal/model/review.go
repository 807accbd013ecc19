package model

import "time"

// RatingSlot is one tasting entry inside a review. The user-facing path
// writes Rating and Notes; the pipeline only ever attaches BreweryID and
// BeerID to existing slots. Index is the stable slot identity used for
// targeted updates.
type RatingSlot struct {
	Index     int        `json:"index"`
	Guess     LabelGuess `json:"guess"`
	Rating    int        `json:"rating,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	BreweryID string     `json:"brewery_id,omitempty"`
	BeerID    string     `json:"beer_id,omitempty"`
}

// Review is the user-authored container the pipeline annotates. The pipeline
// must never discard rating or notes data already present on a slot.
type Review struct {
	ID               string       `json:"id"`
	Slots            []RatingSlot `json:"slots"`
	NeedsAdminReview bool         `json:"needs_admin_review,omitempty"`
	ReviewReason     string       `json:"review_reason,omitempty"`
	ProcessingError  string       `json:"processing_error,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// SlotByIndex returns the slot with the given index, or nil.
func (r *Review) SlotByIndex(idx int) *RatingSlot {
	for i := range r.Slots {
		if r.Slots[i].Index == idx {
			return &r.Slots[i]
		}
	}
	return nil
}
