package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrect_SingleCharFlip(t *testing.T) {
	desc := "Sudigiri is a golden ale brewed with local hops."
	got := Correct("Sudigir", desc, "")

	assert.True(t, got.WasCorrected)
	assert.Equal(t, "Sudigiri", got.Name)
	assert.Equal(t, 1, got.Distance)
}

func TestCorrect_UnrelatedTextDoesNotFire(t *testing.T) {
	desc := "Completely Different Name is a stout aged in oak barrels."
	got := Correct("Sudigir", desc, "")

	assert.False(t, got.WasCorrected)
	assert.Equal(t, "Sudigir", got.Name)
}

func TestCorrect_ExactMatchConfirmsReading(t *testing.T) {
	desc := "The flagship Tipopils has been brewed since 1996."
	got := Correct("Tipopils", desc, "")

	assert.False(t, got.WasCorrected)
	assert.Equal(t, "Tipopils", got.Name)
}

func TestCorrect_DistanceBound(t *testing.T) {
	// Three edits away is a different word, not a misread.
	got := Correct("Nora", "Norinna is a spiced ale.", "")
	assert.False(t, got.WasCorrected)
}

func TestCorrect_MultiWordUsesLastToken(t *testing.T) {
	// "Birra Sudigir": the last token alone is compared too, taking the minimum.
	desc := "Their Sudigiri pours a hazy gold."
	got := Correct("Birra Sudigir", desc, "")

	assert.True(t, got.WasCorrected)
	assert.Equal(t, "Sudigiri", got.Name)
}

func TestCorrect_TastingNotesAlsoMined(t *testing.T) {
	got := Correct("Tipopis", "", "Tipopils shows a crisp bitterness and floral nose.")

	assert.True(t, got.WasCorrected)
	assert.Equal(t, "Tipopils", got.Name)
}

func TestCorrect_EmptyInputs(t *testing.T) {
	assert.False(t, Correct("", "some text", "").WasCorrected)
	assert.False(t, Correct("Tipopils", "", "").WasCorrected)
}

func TestExtractCandidates(t *testing.T) {
	text := `The beer is named Quarta Runa. Montegioco is a small village.
	Short ok no.`
	cands := extractCandidates(text)

	assert.Contains(t, cands, "Quarta Runa")
	assert.Contains(t, cands, "Montegioco")
	for _, c := range cands {
		assert.GreaterOrEqual(t, len(c), minCandidateLen)
	}
}
