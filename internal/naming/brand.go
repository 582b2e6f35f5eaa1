package naming

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// BrandRule maps a name-prefix pattern to a brand label.
// Pattern is a regular expression anchored at the start of the name
// (after the multi-pack marker) and matched case-insensitively.
type BrandRule struct {
	Pattern string `json:"pattern"`
	Brand   string `json:"brand"`
}

type compiledRule struct {
	re    *regexp.Regexp
	brand string
}

// BrandExtractor resolves a brand label from a raw article name.
// It is immutable after construction and safe for concurrent use.
type BrandExtractor struct {
	rules   []compiledRule
	generic []string // folded prefixes of known unbranded articles
}

// NewBrandExtractor compiles rules in the given order. Earlier rules win, so
// narrower product lines must come before the brand they belong to.
func NewBrandExtractor(rules []BrandRule, generic []string) (*BrandExtractor, error) {
	e := &BrandExtractor{
		rules:   make([]compiledRule, 0, len(rules)),
		generic: make([]string, 0, len(generic)),
	}
	for i, r := range rules {
		if r.Brand == "" {
			return nil, fmt.Errorf("brand rule %d: empty brand", i)
		}
		re, err := regexp.Compile(`(?i)^(?:` + r.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("brand rule %d (%s): %w", i, r.Brand, err)
		}
		e.rules = append(e.rules, compiledRule{re: re, brand: r.Brand})
	}
	for _, prefix := range generic {
		if p := fold(prefix); p != "" {
			e.generic = append(e.generic, p)
		}
	}
	return e, nil
}

// BrandMatch is the outcome of a brand lookup
type BrandMatch struct {
	Brand   string // empty unless a rule matched
	Generic bool   // name is a known unbranded article
}

// Classify runs the rule table, then the generic-prefix table
func (e *BrandExtractor) Classify(raw string) BrandMatch {
	name := StripMarker(raw)
	if name == "" {
		return BrandMatch{}
	}
	for _, r := range e.rules {
		if r.re.MatchString(name) {
			return BrandMatch{Brand: r.brand}
		}
	}
	return BrandMatch{Generic: e.IsGeneric(name)}
}

// Extract returns the brand for the raw name. ok is false both for known
// generic articles (fresh produce, herbs) and for names no rule covers;
// there is no separate "unknown" brand.
func (e *BrandExtractor) Extract(raw string) (brand string, ok bool) {
	m := e.Classify(raw)
	return m.Brand, m.Brand != ""
}

// IsGeneric reports whether the name starts with a known unbranded article prefix
func (e *BrandExtractor) IsGeneric(raw string) bool {
	name := fold(StripMarker(raw))
	for _, prefix := range e.generic {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Len returns the number of brand rules
func (e *BrandExtractor) Len() int {
	return len(e.rules)
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// brandFile is the on-disk format of an externally maintained rule table
type brandFile struct {
	Rules   []BrandRule `json:"rules"`
	Generic []string    `json:"generic"`
}

// LoadBrandRules reads a JSON rule table and builds an extractor from it.
// When the file has no generic list the built-in one is used.
func LoadBrandRules(r io.Reader) (*BrandExtractor, error) {
	var f brandFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode brand rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("decode brand rules: no rules")
	}
	generic := f.Generic
	if len(generic) == 0 {
		generic = defaultGenericPrefixes
	}
	return NewBrandExtractor(f.Rules, generic)
}

var defaultExtractor = mustDefaultExtractor()

func mustDefaultExtractor() *BrandExtractor {
	e, err := NewBrandExtractor(defaultBrandRules, defaultGenericPrefixes)
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultBrandExtractor returns the extractor built from the built-in tables
func DefaultBrandExtractor() *BrandExtractor {
	return defaultExtractor
}

// ExtractBrand is DefaultBrandExtractor().Extract
func ExtractBrand(raw string) (string, bool) {
	return defaultExtractor.Extract(raw)
}
