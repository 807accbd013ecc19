package sitemine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMineAddresses(t *testing.T) {
	text := `Birrificio Lambrate S.r.l.
Sede legale: Via Adelchi 5, 20131 Milano (MI)
Taproom: Via Golgi 60`

	matches := MineAddresses(text)
	require.NotEmpty(t, matches)
	assert.Equal(t, 3, matches[0].Score)
	assert.Contains(t, matches[0].Address, "Via Adelchi 5")
	assert.Contains(t, matches[0].Address, "20131")
	assert.Contains(t, matches[0].Address, "(MI)")
}

func TestMineAddresses_BareStreetScoresLow(t *testing.T) {
	matches := MineAddresses("Ci trovi in Via Roma 12 tutti i giorni")
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Score)
}

func TestMineEmail_SkipsPEC(t *testing.T) {
	text := "PEC: birrificio@pec.esempio.it — scrivici a info@birrificio.example"
	assert.Equal(t, "info@birrificio.example", MineEmail(text))
	assert.Equal(t, "birrificio@pec.esempio.it", MinePEC(text))
}

func TestMinePhone(t *testing.T) {
	assert.Equal(t, "+39022847862", MinePhone("Tel: +39 02 2847862"))
	assert.Equal(t, "3471234567", MinePhone("cell 347 1234567"))
	assert.Empty(t, MinePhone("nessun contatto"))
}

func TestMineFiscalCode(t *testing.T) {
	assert.Equal(t, "12345678901", MineFiscalCode("P.IVA 12345678901 - REA MI-1234567"))
	assert.Equal(t, "12345678901", MineFiscalCode("Partita IVA: IT 12345678901"))
	assert.Empty(t, MineFiscalCode("nessun codice"))
}

func TestMineREACode(t *testing.T) {
	assert.Equal(t, "MI-1234567", MineREACode("iscritta al R.E.A. MI 1234567"))
	assert.Equal(t, "TO-987654", MineREACode("REA: TO-987654"))
}

func TestMineExciseCode(t *testing.T) {
	assert.Equal(t, "IT00MIB00123X", MineExciseCode("Codice accisa: IT 00 MIB00123X"))
}

func TestMineFoundedYear(t *testing.T) {
	assert.Equal(t, 1996, MineFoundedYear("Birre artigianali dal 1996"))
	assert.Equal(t, 2015, MineFoundedYear("Il birrificio, fondato nel 2015, produce..."))
	assert.Zero(t, MineFoundedYear("aperti dalle 18"))
}

func TestMineBrewerName(t *testing.T) {
	assert.Equal(t, "Agostino Arioli", MineBrewerName("Il mastro birraio Agostino Arioli guida la produzione"))
	assert.Empty(t, MineBrewerName("la nostra squadra"))
}

func TestMineDescription(t *testing.T) {
	text := "Menu\nIl nostro birrificio artigianale nasce nel cuore di Milano e produce birre a bassa fermentazione ispirate alla tradizione tedesca, senza pastorizzazione.\nContatti"

	desc := MineDescription(text)
	assert.Contains(t, desc, "birrificio artigianale")

	assert.Empty(t, MineDescription("Una lunga pagina che parla solo di eventi e concerti senza mai citare la produzione, con molte parole ma nessun riferimento utile al tema"))
}

func TestMineSizeClass(t *testing.T) {
	assert.Equal(t, "micro", MineSizeClass("produciamo 800 hl all'anno"))
	assert.Equal(t, "small", MineSizeClass("circa 5.000 ettolitri annui"))
	assert.Equal(t, "micro", MineSizeClass("siamo un microbirrificio indipendente"))
	assert.Empty(t, MineSizeClass("benvenuti"))
}

func TestMineSocialLinks(t *testing.T) {
	html := `<a href="https://www.facebook.com/birrificiolambrate">fb</a>
<a href="https://www.instagram.com/birrificiolambrate/">ig</a>
<a href="https://www.facebook.com/sharer/sharer.php?u=x">share</a>`

	links := MineSocialLinks(html)
	require.Len(t, links, 2)
	assert.Equal(t, "https://www.facebook.com/birrificiolambrate", links["facebook"])
	assert.Contains(t, links["instagram"], "instagram.com")
}

func TestMineAwards(t *testing.T) {
	text := "Medaglia d'oro a Birra dell'Anno 2023 categoria Pils\nPremio slow food per la Ghisa\ncookie policy premio"

	awards := MineAwards(text)
	require.Len(t, awards, 2)
	assert.Contains(t, awards[0], "Medaglia d'oro")
}

func TestMineProducts_Stoplist(t *testing.T) {
	html := `<a href="/birre/tipopils">Tipopils</a>
<a href="/birre/bibock">Bibock</a>
<a href="/birre/privacy">Privacy Policy</a>
<h2>Le nostre birre</h2>
<h3>Amber Shock</h3>`

	products := MineProducts(html)
	assert.Contains(t, products, "Tipopils")
	assert.Contains(t, products, "Bibock")
	assert.Contains(t, products, "Amber Shock")
	assert.NotContains(t, products, "Privacy Policy")
	assert.NotContains(t, products, "Le nostre birre")
}

func TestFindLogo(t *testing.T) {
	html := `<header><img src="/wp-content/uploads/logo-birrificio.png" alt="Birrificio Italiano"></header>
<img src="/photos/taproom.jpg" alt="taproom">`

	logo := FindLogo(html, "https://www.birrificioitaliano.it/")
	assert.Equal(t, "https://www.birrificioitaliano.it/wp-content/uploads/logo-birrificio.png", logo)

	assert.Empty(t, FindLogo(`<img src="/photos/a.jpg" alt="x">`, "https://x.example/"))
}

func TestPageWeight(t *testing.T) {
	assert.Equal(t, 100, pageWeight("/contatti", ""))
	assert.Equal(t, 80, pageWeight("/chi-siamo", ""))
	assert.Equal(t, 100, pageWeight("/pagina", "Contatti"))
	assert.Equal(t, 10, pageWeight("/eventi", "Eventi"))
}
