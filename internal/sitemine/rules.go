// Package sitemine crawls a brewery's own website and mines it for the
// structured facts the canonical record wants: address, contacts, fiscal
// identifiers, history, products, logo. Each field lives behind a small pure
// miner so fixture snippets can exercise them in isolation.
package sitemine

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type priorityRule struct {
	Weight   int      `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

type miningRules struct {
	PagePriorities  []priorityRule `yaml:"page_priorities"`
	ProductStoplist []string       `yaml:"product_stoplist"`
}

var rules = loadRules()

func loadRules() miningRules {
	var r miningRules
	if err := yaml.Unmarshal(rulesYAML, &r); err != nil {
		// The rules file ships inside the binary; a parse failure is a
		// build defect, not a runtime condition.
		panic("sitemine: embedded rules.yaml invalid: " + err.Error())
	}
	return r
}

// pageWeight scores a link by its path and anchor text. Higher means
// fetch earlier. Unmatched pages get a small positive weight so the crawl
// still visits them when fetch slots remain.
func pageWeight(path, anchorText string) int {
	haystack := strings.ToLower(path + " " + anchorText)
	best := 10
	for _, rule := range rules.PagePriorities {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) && rule.Weight > best {
				best = rule.Weight
			}
		}
	}
	return best
}

// isStoplisted reports whether a candidate product name is navigation or
// legal boilerplate.
func isStoplisted(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, stop := range rules.ProductStoplist {
		if lower == stop {
			return true
		}
	}
	return false
}
