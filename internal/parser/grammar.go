package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Header patterns, anchored at line start
var (
	// "Datum: 14.03.2025  Zeit: 17:42"
	dateTimePattern = regexp.MustCompile(`^Datum:\s*(\d{2}\.\d{2}\.\d{4})\s+Zeit:\s*(\d{2}:\d{2})`)

	storePattern    = regexp.MustCompile(`^Filiale:\s*(\d+)\s*$`)
	registerPattern = regexp.MustCompile(`^Kassa:\s*(\d+)\s*$`)
	bonPattern      = regexp.MustCompile(`^Bon-Nr:\s*(\d+)\s*$`)
	receiptPattern  = regexp.MustCompile(`^Re-Nr:\s*(\d[\d-]*)\s*$`)

	// "HEUTE GESPART 3,41 EUR"
	savingsPattern = regexp.MustCompile(`^HEUTE GESPART\s+(` + amountPattern + `)\s*EUR`)

	// "SUMME EUR 23,45"; the amount is the last one on the line
	grandTotalPattern = regexp.MustCompile(`^SUMME\b.*EUR`)
	anyAmountPattern  = regexp.MustCompile(amountPattern)

	// "B: 10% MwSt von 21,30 = 1,94"
	taxPattern = regexp.MustCompile(`^([A-Z]):\s*(\d+(?:,\d+)?)\s*%\s*MwSt\b.*=\s*(` + amountPattern + `)\s*$`)

	pointsEarnedPattern   = regexp.MustCompile(`^Jetzt gesammelt:\s*(\d+)\s*$`)
	pointsRedeemedPattern = regexp.MustCompile(`^Jetzt eingel(?:ö|oe)st:\s*([-+]?\d+)\s*$`)
)

// Item range shapes
var (
	// "0,512 kg x 3,98 EUR/kg", "1,204 kg (N) x 2,49 EUR/kg"
	weightPattern = regexp.MustCompile(`^(\d+(?:,\d+)?)\s*kg\s+(?:\([^)]*\)\s+)?x\s+(\d+(?:\.\d{3})*,\d{2})\s*EUR\s*/\s*kg$`)

	// "3 x 1,99"
	countPattern = regexp.MustCompile(`^(\d+)\s*x\s+(\d+(?:\.\d{3})*,\d{2})$`)

	// "Milch B 5,97"; totals are never signed
	itemPattern = regexp.MustCompile(`^(.+?)\s+([A-Z])\s+(\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2})$`)

	// "FILIALAKTION 25% B -0,63"
	percentDiscountPattern = regexp.MustCompile(`^(.+?)\s+([-+]?\d+)\s*%\s+(?:([A-Z])\s+)?(` + signedAmountPattern + `)$`)

	// "4 x NIMM MEHR B -2,00", "AKTIONSRABATT -0,50"
	bulkDiscountPattern = regexp.MustCompile(`^(?:(\d+)\s*x\s+)?(.+?)\s+(?:([A-Z])\s+)?(` + signedAmountPattern + `)$`)

	subtotalPattern = regexp.MustCompile(`(?i)^(?:ZWISCHEN\s*-?\s*SUMME|ZW\.?-?SUMME|SUMME)\b`)

	// Loyalty bookkeeping that can show up between items
	loyaltyNoisePattern = regexp.MustCompile(`^(?:Jetzt gesammelt|Jetzt eingel(?:ö|oe)st|Punktestand|Bonuspunkte)\b.*$`)
)

const signedAmountPattern = `[-+]\d{1,3}(?:\.\d{3})+,\d{2}|[-+]\d+,\d{2}`

// Fixed loyalty and program banners, matched as whole-word line prefixes
var noisePhrases = []string{
	"jö Bonus Club",
	"jö Äpp",
	"jö Vorteil",
	"Ihre jö Vorteile",
	"Ihr jö Rabatt",
	"BILLA App",
	"Mitglied seit",
	"Kundenkarte",
	"Vorteilskarte",
	"Vielen Dank für Ihren Einkauf",
}

// Generic promotion banners. None of them carries an amount, so an article
// line that happens to start with the same word still parses as an item.
var bannerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^[*\s-]*(?:AKTION(?:EN)?|ANGEBOTE?|WOCHENKNALLER|MENGENRABATT)\b[^,]*$`),
	regexp.MustCompile(`(?i)^[*\s-]*NIMM\s+MEHR\b[^,]*$`),
	regexp.MustCompile(`(?i)^[*\s-]*-?\d+\s*%\s+AUF\b[^,]*$`),
	regexp.MustCompile(`^[*=\-_\s]{3,}$`),
}

var foldedNoisePhrases = foldAll(noisePhrases)

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = cases.Fold().String(s)
	}
	return out
}

// isNoise never claims a line that has the shape of an article
func isNoise(line string) bool {
	if itemPattern.MatchString(line) {
		return false
	}
	if loyaltyNoisePattern.MatchString(line) {
		return true
	}
	folded := cases.Fold().String(line)
	for _, phrase := range foldedNoisePhrases {
		if hasWordPrefix(folded, phrase) {
			return true
		}
	}
	return false
}

// hasWordPrefix requires the prefix to end at a word boundary
func hasWordPrefix(s, prefix string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(s[len(prefix):])
	return next == utf8.RuneError || !unicode.IsLetter(next)
}

func isBanner(line string) bool {
	for _, re := range bannerPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// isGrandTotal reports whether the line opens the receipt's total summary
func isGrandTotal(line string) bool {
	return grandTotalPattern.MatchString(line)
}

// isSubtotal matches intermediate sums but never the grand total line
func isSubtotal(line string) bool {
	return subtotalPattern.MatchString(line) && !isGrandTotal(line)
}
