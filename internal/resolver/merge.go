package resolver

import "github.com/birralog/enrich-cli/internal/model"

// mergeBreweryFacts fills gaps in the record from a candidate's facts without
// overwriting anything already populated. The one exception is the logo: a
// scrape-verified logo replaces a model-suggested, unverified one. Reports
// whether any field changed.
func mergeBreweryFacts(b *model.Brewery, f *model.BreweryFacts) bool {
	if f == nil {
		return false
	}
	changed := false
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}

	fill(&b.Website, f.Website)
	fill(&b.Address, f.Address)
	fill(&b.Email, f.Email)
	fill(&b.Phone, f.Phone)
	fill(&b.FiscalCode, f.FiscalCode)
	fill(&b.REACode, f.REACode)
	fill(&b.ExciseCode, f.ExciseCode)
	fill(&b.PECEmail, f.PECEmail)
	fill(&b.SizeClass, f.SizeClass)
	fill(&b.History, f.History)
	fill(&b.BrewerName, f.BrewerName)

	if b.FoundedYear == 0 && f.FoundedYear != 0 {
		b.FoundedYear = f.FoundedYear
		changed = true
	}
	if len(b.SocialLinks) == 0 && len(f.SocialLinks) > 0 {
		b.SocialLinks = f.SocialLinks
		changed = true
	}
	if len(b.Products) == 0 && len(f.Products) > 0 {
		b.Products = f.Products
		changed = true
	}
	if len(b.Awards) == 0 && len(f.Awards) > 0 {
		b.Awards = f.Awards
		changed = true
	}

	switch {
	case b.LogoURL == "" && f.LogoURL != "":
		b.LogoURL = f.LogoURL
		b.LogoVerified = f.LogoVerified
		changed = true
	case !b.LogoVerified && f.LogoVerified && f.LogoURL != "":
		b.LogoURL = f.LogoURL
		b.LogoVerified = true
		changed = true
	}

	return changed
}

// mergeBreweryRecord folds a freshly-built record into an existing row, used
// when a create loses the race to a concurrent job attempt.
func mergeBreweryRecord(dst, src *model.Brewery) {
	mergeBreweryFacts(dst, &model.BreweryFacts{
		Website:      src.Website,
		Address:      src.Address,
		Email:        src.Email,
		Phone:        src.Phone,
		FiscalCode:   src.FiscalCode,
		REACode:      src.REACode,
		ExciseCode:   src.ExciseCode,
		PECEmail:     src.PECEmail,
		FoundedYear:  src.FoundedYear,
		SizeClass:    src.SizeClass,
		History:      src.History,
		BrewerName:   src.BrewerName,
		SocialLinks:  src.SocialLinks,
		LogoURL:      src.LogoURL,
		LogoVerified: src.LogoVerified,
		Products:     src.Products,
		Awards:       src.Awards,
	})
	if src.Confidence > dst.Confidence {
		dst.Confidence = src.Confidence
	}
}

// mergeBeerFacts fills gaps in the beer record from enrichment facts. The
// facts come exclusively from grounded search or site scraping, never from
// the label guess: vision cannot reliably read ABV, IBU or style.
func mergeBeerFacts(b *model.Beer, f *model.BeerFacts) bool {
	if f == nil {
		return false
	}
	changed := false
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}

	fill(&b.Style, f.Style)
	fill(&b.SubStyle, f.SubStyle)
	fill(&b.Color, f.Color)
	fill(&b.ServingTempC, f.ServingTempC)
	fill(&b.Description, f.Description)
	fill(&b.Ingredients, f.Ingredients)
	fill(&b.TastingNotes, f.TastingNotes)
	fill(&b.Pairing, f.Pairing)

	if b.ABV == 0 && f.ABV != 0 {
		b.ABV = f.ABV
		changed = true
	}
	if b.IBU == 0 && f.IBU != 0 {
		b.IBU = f.IBU
		changed = true
	}
	if b.VolumeML == 0 && f.VolumeML != 0 {
		b.VolumeML = f.VolumeML
		changed = true
	}
	return changed
}
