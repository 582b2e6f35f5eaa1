// Package parser turns the text lines of one printed receipt into a
// models.Receipt. Layout: header fields anywhere, article lines between the
// "Datum:" line and the "SUMME ... EUR" line.
package parser

import (
	"context"
	"strings"
	"time"

	"grocerybooks/internal/logger"
	"grocerybooks/internal/models"
)

// Options configures a ReceiptParser
type Options struct {
	// Location the printed date and time are interpreted in. Defaults to time.Local.
	Location     *time.Location
	Unrecognized UnrecognizedPolicy
}

// Result is a validated receipt plus the anomalies recovered while parsing it
type Result struct {
	Receipt  *models.Receipt
	Warnings []Warning
}

// Count returns the number of warnings of the given kind
func (r *Result) Count(kind WarningKind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// ReceiptParser runs header extraction and the item parser over one receipt
type ReceiptParser struct {
	loc   *time.Location
	items *LineItemParser
}

func NewReceiptParser(opts Options) *ReceiptParser {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &ReceiptParser{
		loc:   loc,
		items: NewLineItemParser(opts.Unrecognized),
	}
}

// Parse returns the receipt or a *StructuralValidationError naming every
// missing required field. It never returns a partial receipt.
func (p *ReceiptParser) Parse(ctx context.Context, lines []string) (*Result, error) {
	header := ExtractHeader(lines, p.loc)
	if missing := header.Missing(); len(missing) > 0 {
		return nil, &StructuralValidationError{Missing: missing}
	}

	start, end := itemRange(lines, header.DateLine)
	items, warnings, err := p.items.Parse(ctx, lines[start:end], start)
	if err != nil {
		return nil, err
	}

	receipt := &models.Receipt{
		PurchasedAt:    header.PurchasedAt,
		StoreCode:      header.StoreCode,
		RegisterNumber: header.RegisterNumber,
		BonNumber:      header.BonNumber,
		ReceiptNumber:  header.ReceiptNumber,
		Total:          header.Total,
		Savings:        header.Savings,
		TaxTotals:      header.SortedTaxTotals(),
		PointsEarned:   header.PointsEarned,
		PointsRedeemed: header.PointsRedeemed,
		Items:          items,
	}

	logger.FromContext(ctx).Debug("receipt_parsed",
		"receipt_number", receipt.ReceiptNumber,
		"items", len(items),
		"warnings", len(warnings),
		"item_range", []int{start, end},
	)

	return &Result{Receipt: receipt, Warnings: warnings}, nil
}

// itemRange returns [start, end): from the line after the date line up to
// the first grand-total line after it, or the end of the receipt
func itemRange(lines []string, dateLine int) (int, int) {
	start := dateLine + 1
	if start > len(lines) {
		start = len(lines)
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isGrandTotal(strings.TrimSpace(lines[i])) {
			end = i
			break
		}
	}
	return start, end
}
