package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockAgeGate    BlockType = "age_gate"
)

// ageGateMarkers flag the age-verification interstitials alcohol producers
// put in front of their sites. A page that is mostly gate is useless for
// mining even though the request "succeeded".
var ageGateMarkers = []string{
	"sei maggiorenne",
	"verifica la tua et",
	"devi avere almeno 18 anni",
	"per accedere devi essere maggiorenne",
	"are you of legal drinking age",
	"you must be 21",
	"age verification",
}

// DetectBlock checks an HTTP response for signs of anti-bot protection or an
// age-verification gate hiding the real content.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	// Cloudflare challenge page markers.
	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) {
		return true, BlockCloudflare
	}

	// Captcha markers.
	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	// Age gate: only counts when the page is small, a real site page may
	// legitimately mention drinking age in its footer.
	if len(body) < 4000 {
		for _, marker := range ageGateMarkers {
			if strings.Contains(lower, marker) {
				return true, BlockAgeGate
			}
		}
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
