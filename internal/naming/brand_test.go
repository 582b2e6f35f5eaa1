package naming

import (
	"strings"
	"testing"
)

func TestExtractBrand(t *testing.T) {
	testCases := []struct {
		name      string
		wantBrand string
		wantOK    bool
	}{
		{"BILLA Vollmilch 3,5%", "Billa", true},
		{"BILLA BIO Vollmilch", "Billa Bio", true},
		{"billa bio eier", "Billa Bio", true},
		{"*BILLA BIO Joghurt 4x", "Billa Bio", true},
		{"SPAR NATUR PUR Butter", "Spar Natur*pur", true},
		{"SPAR Toastbrot", "Spar", true},
		{"SPARGEL weiss", "", false},
		{"NÖM Joghurt Erdbeere", "NÖM", true},
		{"Rauch Happy Day Orange", "Happy Day", true},
		{"Rauch Eistee", "Rauch", true},
		{"Paprika rot", "", false},
		{"Petersilie Bund", "", false},
		{"Unbekannter Artikel", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		brand, ok := ExtractBrand(tc.name)
		if brand != tc.wantBrand || ok != tc.wantOK {
			t.Errorf("ExtractBrand(%q) = (%q, %v), want (%q, %v)", tc.name, brand, ok, tc.wantBrand, tc.wantOK)
		}
	}
}

func TestBrandExtractor_SpecificRuleWins(t *testing.T) {
	e, err := NewBrandExtractor([]BrandRule{
		{Pattern: `HOFER\s+ORGANIC`, Brand: "Hofer Organic"},
		{Pattern: `HOFER`, Brand: "Hofer"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if brand, _ := e.Extract("HOFER ORGANIC Milk"); brand != "Hofer Organic" {
		t.Fatalf("expected specific brand, got %q", brand)
	}
	if brand, _ := e.Extract("HOFER Milk"); brand != "Hofer" {
		t.Fatalf("expected parent brand, got %q", brand)
	}

	// Reversed order shadows the narrower line
	shadowed, err := NewBrandExtractor([]BrandRule{
		{Pattern: `HOFER`, Brand: "Hofer"},
		{Pattern: `HOFER\s+ORGANIC`, Brand: "Hofer Organic"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if brand, _ := shadowed.Extract("HOFER ORGANIC Milk"); brand != "Hofer" {
		t.Fatalf("first rule should win, got %q", brand)
	}
}

func TestBrandExtractor_Classify(t *testing.T) {
	e := DefaultBrandExtractor()

	if m := e.Classify("Paprika gelb"); m.Brand != "" || !m.Generic {
		t.Errorf("expected generic produce, got %+v", m)
	}
	if m := e.Classify("Zauberwürfel"); m.Brand != "" || m.Generic {
		t.Errorf("expected no match, got %+v", m)
	}
	if m := e.Classify("*ALPRO Haferdrink"); m.Brand != "Alpro" {
		t.Errorf("expected Alpro, got %+v", m)
	}
}

func TestNewBrandExtractor_Invalid(t *testing.T) {
	if _, err := NewBrandExtractor([]BrandRule{{Pattern: `(`, Brand: "X"}}, nil); err == nil {
		t.Errorf("expected error for invalid pattern")
	}
	if _, err := NewBrandExtractor([]BrandRule{{Pattern: `X`}}, nil); err == nil {
		t.Errorf("expected error for empty brand")
	}
}

func TestLoadBrandRules(t *testing.T) {
	input := `{
		"rules": [
			{"pattern": "KOTANYI", "brand": "Kotanyi"}
		]
	}`
	e, err := LoadBrandRules(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("expected 1 rule, got %d", e.Len())
	}
	if brand, ok := e.Extract("Kotanyi Paprika edelsüß"); !ok || brand != "Kotanyi" {
		t.Fatalf("unexpected brand: %q %v", brand, ok)
	}
	if !e.IsGeneric("Bananen") {
		t.Fatalf("expected built-in generic prefixes")
	}

	if _, err := LoadBrandRules(strings.NewReader(`{"rules": []}`)); err == nil {
		t.Fatalf("expected error for empty rule list")
	}
	if _, err := LoadBrandRules(strings.NewReader(`{"rulez": []}`)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
