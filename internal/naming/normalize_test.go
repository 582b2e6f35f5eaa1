package naming

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"Milch", "milch"},
		{"  BILLA Vollmilch 3,5%  ", "billa vollmilch 3,5%"},
		{"*Mineralwasser 6x1,5l", "mineralwasser 6x1,5l"},
		{"* Mineralwasser   6x1,5l", "mineralwasser 6x1,5l"},
		{"**NÖM Joghurt", "nöm joghurt"},
		{"", ""},
		{"   ", ""},
		{"ÄPFEL GOLDEN", "äpfel golden"},
	}

	for _, tc := range testCases {
		if got := Normalize(tc.input); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Milch",
		"*Mineralwasser",
		"** * Doppelpack  Kekse",
		"  Straße  ",
		"SCHÄRDINGER Gouda",
		"Café Creme",
		"*",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestIsMultiPack(t *testing.T) {
	if !IsMultiPack("*Mineralwasser") {
		t.Errorf("expected multi-pack for marker prefix")
	}
	if !IsMultiPack("  *Mineralwasser") {
		t.Errorf("expected multi-pack for marker after whitespace")
	}
	if IsMultiPack("Mineralwasser*") {
		t.Errorf("trailing marker must not count")
	}
}
