package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"grocerybooks/internal/models"
)

// Header holds the fields recognized anywhere in a receipt
type Header struct {
	PurchasedAt    time.Time
	HasDate        bool
	DateLine       int // index of the last date line, -1 if none
	StoreCode      string
	RegisterNumber string
	BonNumber      string
	ReceiptNumber  string
	Total          decimal.Decimal
	HasTotal       bool
	TotalLine      int // index of the last grand-total line, -1 if none
	Savings        decimal.Decimal
	TaxTotals      map[string]models.TaxTotal
	PointsEarned   int
	// PointsRedeemed is the magnitude of "Jetzt eingelöst"; the receipt
	// prints redemptions negative, so "-100" and "100" both store 100
	PointsRedeemed int
}

// Missing lists the required fields that were not found, in a fixed order
func (h *Header) Missing() []string {
	var missing []string
	if !h.HasDate {
		missing = append(missing, FieldDate)
	}
	if h.ReceiptNumber == "" {
		missing = append(missing, FieldReceiptNumber)
	}
	if !h.HasTotal {
		missing = append(missing, FieldTotal)
	}
	return missing
}

// SortedTaxTotals returns the tax lines ordered by category letter
func (h *Header) SortedTaxTotals() []models.TaxTotal {
	if len(h.TaxTotals) == 0 {
		return nil
	}
	out := make([]models.TaxTotal, 0, len(h.TaxTotals))
	for _, t := range h.TaxTotals {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// headerField recognizes one header line. apply returns false when the line
// has the field's shape but an unusable value.
type headerField struct {
	match func(line string) []string
	apply func(h *Header, m []string, idx int, loc *time.Location) bool
}

func regexField(re *regexp.Regexp, apply func(h *Header, m []string, idx int, loc *time.Location) bool) headerField {
	return headerField{match: re.FindStringSubmatch, apply: apply}
}

var headerFields = []headerField{
	regexField(dateTimePattern, func(h *Header, m []string, idx int, loc *time.Location) bool {
		t, err := time.ParseInLocation("02.01.2006 15:04", m[1]+" "+m[2], loc)
		if err != nil {
			return false
		}
		h.PurchasedAt = t
		h.HasDate = true
		h.DateLine = idx
		return true
	}),
	regexField(storePattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		h.StoreCode = m[1]
		return true
	}),
	regexField(registerPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		h.RegisterNumber = m[1]
		return true
	}),
	regexField(bonPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		h.BonNumber = m[1]
		return true
	}),
	regexField(receiptPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		h.ReceiptNumber = m[1]
		return true
	}),
	regexField(savingsPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		d, err := parseAmount(m[1])
		if err != nil {
			return false
		}
		h.Savings = d.Abs()
		return true
	}),
	{
		match: func(line string) []string {
			if !isGrandTotal(line) {
				return nil
			}
			amounts := anyAmountPattern.FindAllString(line, -1)
			if len(amounts) == 0 {
				return nil
			}
			return []string{line, amounts[len(amounts)-1]}
		},
		apply: func(h *Header, m []string, idx int, _ *time.Location) bool {
			d, err := parseAmount(m[1])
			if err != nil {
				return false
			}
			h.Total = d
			h.HasTotal = true
			h.TotalLine = idx
			return true
		},
	},
	regexField(taxPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		rate, err := parseDecimal(m[2])
		if err != nil {
			return false
		}
		amount, err := parseAmount(m[3])
		if err != nil {
			return false
		}
		category := strings.ToUpper(m[1])
		h.TaxTotals[category] = models.TaxTotal{Category: category, Rate: rate, Amount: amount}
		return true
	}),
	regexField(pointsEarnedPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		h.PointsEarned = n
		return true
	}),
	regexField(pointsRedeemedPattern, func(h *Header, m []string, _ int, _ *time.Location) bool {
		n, err := strconv.Atoi(strings.TrimPrefix(m[1], "+"))
		if err != nil {
			return false
		}
		if n < 0 {
			n = -n
		}
		h.PointsRedeemed = n
		return true
	}),
}

// ExtractHeader scans every line once. Each line feeds at most one field and
// a later occurrence of a field overrides an earlier one.
func ExtractHeader(lines []string, loc *time.Location) Header {
	if loc == nil {
		loc = time.Local
	}
	h := Header{
		DateLine:  -1,
		TotalLine: -1,
		TaxTotals: make(map[string]models.TaxTotal),
	}
	for idx, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, f := range headerFields {
			m := f.match(line)
			if m == nil {
				continue
			}
			if f.apply(&h, m, idx, loc) {
				break
			}
		}
	}
	return h
}
