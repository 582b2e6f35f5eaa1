package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"grocerybooks/internal/logger"
	"grocerybooks/internal/models"
	"grocerybooks/internal/naming"
)

// UnrecognizedPolicy decides what an item-range line matching no shape does
type UnrecognizedPolicy int

const (
	// PolicySkip drops the line and records a warning
	PolicySkip UnrecognizedPolicy = iota
	// PolicyFail rejects the whole receipt
	PolicyFail
)

// ParsePolicy reads "skip" or "fail"
func ParsePolicy(s string) (UnrecognizedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return PolicySkip, nil
	case "fail":
		return PolicyFail, nil
	default:
		return PolicySkip, fmt.Errorf("unknown unrecognized-line policy %q", s)
	}
}

func (p UnrecognizedPolicy) String() string {
	if p == PolicyFail {
		return "fail"
	}
	return "skip"
}

type WarningKind string

const (
	WarnUnrecognizedLine WarningKind = "unrecognized_line"
	WarnDiscountMismatch WarningKind = "discount_quantity_mismatch"
	WarnOrphanWeightLine WarningKind = "orphan_weight_line"
	WarnOrphanCountLine  WarningKind = "orphan_count_line"
	WarnStrayDiscount    WarningKind = "stray_discount"
)

// Warning is a recovered line-level anomaly. The line's data (or the
// discount, for mismatches) is lost; the receipt still parses.
type Warning struct {
	Kind   WarningKind
	Line   int // 0-based index into the receipt's lines
	Text   string
	Detail string
}

// cursor walks the item range. offset maps positions back to receipt lines.
type cursor struct {
	lines  []string
	pos    int
	offset int
}

// peek returns the trimmed line i positions ahead of the cursor
func (c *cursor) peek(i int) (string, bool) {
	j := c.pos + i
	if j < 0 || j >= len(c.lines) {
		return "", false
	}
	return strings.TrimSpace(c.lines[j]), true
}

func (c *cursor) lineNo(i int) int {
	return c.offset + c.pos + i
}

func (c *cursor) done() bool {
	return c.pos >= len(c.lines)
}

// step is what a shape matcher reports. consumed == 0 means the shape did not
// match and the next matcher is tried.
type step struct {
	item     *models.LineItem
	consumed int
	warnings []Warning
}

type shapeMatcher func(c *cursor) step

// LineItemParser turns the item range of a receipt into ordered line items
type LineItemParser struct {
	policy   UnrecognizedPolicy
	matchers []shapeMatcher
}

// NewLineItemParser builds the matcher chain in classification priority order
func NewLineItemParser(policy UnrecognizedPolicy) *LineItemParser {
	p := &LineItemParser{policy: policy}
	p.matchers = []shapeMatcher{
		matchBlank,
		matchNoise,
		matchBanner,
		matchSubtotal,
		matchWeighed,
		matchCounted,
		matchStandard,
		matchStrayDiscount,
		matchUnrecognized,
	}
	return p
}

// Parse classifies lines (the item range) and returns items with positions
// assigned from 0. offset is the index of lines[0] within the whole receipt.
// Only PolicyFail can make it return an error.
func (p *LineItemParser) Parse(ctx context.Context, lines []string, offset int) ([]models.LineItem, []Warning, error) {
	log := logger.FromContext(ctx)
	c := &cursor{lines: lines, offset: offset}

	var items []models.LineItem
	var warnings []Warning
	for !c.done() {
		var st step
		for _, m := range p.matchers {
			if st = m(c); st.consumed > 0 {
				break
			}
		}

		for _, w := range st.warnings {
			if w.Kind == WarnUnrecognizedLine && p.policy == PolicyFail {
				return nil, nil, &UnrecognizedLineError{Line: w.Line, Text: w.Text}
			}
			logWarning(ctx, log, w)
		}
		warnings = append(warnings, st.warnings...)

		if st.item != nil {
			st.item.Position = len(items)
			items = append(items, *st.item)
		}
		c.pos += st.consumed
	}
	return items, warnings, nil
}

func logWarning(ctx context.Context, log *slog.Logger, w Warning) {
	msg := "line_" + string(w.Kind)
	if w.Kind == WarnUnrecognizedLine {
		msg = "line_unrecognized"
	}
	log.Log(ctx, slog.LevelWarn, msg,
		"line", w.Line+1,
		"text", w.Text,
		"detail", w.Detail,
	)
}

func matchBlank(c *cursor) step {
	if line, _ := c.peek(0); line == "" {
		return step{consumed: 1}
	}
	return step{}
}

func matchNoise(c *cursor) step {
	if line, _ := c.peek(0); isNoise(line) {
		return step{consumed: 1}
	}
	return step{}
}

func matchBanner(c *cursor) step {
	if line, _ := c.peek(0); isBanner(line) {
		return step{consumed: 1}
	}
	return step{}
}

func matchSubtotal(c *cursor) step {
	if line, _ := c.peek(0); isSubtotal(line) {
		return step{consumed: 1}
	}
	return step{}
}

// matchWeighed handles "<kg> kg x <price> EUR/kg" followed by the article line
func matchWeighed(c *cursor) step {
	line, _ := c.peek(0)
	m := weightPattern.FindStringSubmatch(line)
	if m == nil {
		return step{}
	}
	qty, err1 := parseDecimal(m[1])
	perKg, err2 := parseAmount(m[2])
	if err1 != nil || err2 != nil {
		return step{}
	}
	return quantityLine(c, qty, perKg, models.UnitKilogram, WarnOrphanWeightLine)
}

// matchCounted handles "<n> x <price>" followed by the article line
func matchCounted(c *cursor) step {
	line, _ := c.peek(0)
	m := countPattern.FindStringSubmatch(line)
	if m == nil {
		return step{}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return step{}
	}
	unitPrice, err := parseAmount(m[2])
	if err != nil {
		return step{}
	}
	return quantityLine(c, decimal.NewFromInt(int64(n)), unitPrice, models.UnitEach, WarnOrphanCountLine)
}

// quantityLine finishes a weight or count line. The next line must be an
// article line; otherwise only the quantity line is dropped and the next line
// is classified on its own.
func quantityLine(c *cursor, qty, unitPrice decimal.Decimal, unit string, orphan WarningKind) step {
	next, ok := c.peek(1)
	var article *articleLine
	if ok {
		article = parseArticle(next)
	}
	if article == nil {
		line, _ := c.peek(0)
		return step{
			consumed: 1,
			warnings: []Warning{{Kind: orphan, Line: c.lineNo(0), Text: line, Detail: "not followed by an article line"}},
		}
	}

	item := article.lineItem()
	item.Quantity = qty
	item.Unit = unit
	item.UnitPrice = unitPrice
	item.IsWeightBased = unit == models.UnitKilogram

	consumed, warn := attachDiscount(c, 2, item)
	st := step{item: item, consumed: 2 + consumed}
	if warn != nil {
		st.warnings = append(st.warnings, *warn)
	}
	return st
}

// matchStandard handles a bare article line: quantity 1
func matchStandard(c *cursor) step {
	line, _ := c.peek(0)
	article := parseArticle(line)
	if article == nil {
		return step{}
	}
	item := article.lineItem()
	item.Quantity = decimal.NewFromInt(1)
	item.Unit = models.UnitEach
	item.UnitPrice = article.total

	consumed, warn := attachDiscount(c, 1, item)
	st := step{item: item, consumed: 1 + consumed}
	if warn != nil {
		st.warnings = append(st.warnings, *warn)
	}
	return st
}

// matchStrayDiscount drops a discount line that no article claimed
func matchStrayDiscount(c *cursor) step {
	line, _ := c.peek(0)
	if parseDiscount(line) == nil {
		return step{}
	}
	return step{
		consumed: 1,
		warnings: []Warning{{Kind: WarnStrayDiscount, Line: c.lineNo(0), Text: line, Detail: "discount without a preceding article"}},
	}
}

func matchUnrecognized(c *cursor) step {
	line, _ := c.peek(0)
	return step{
		consumed: 1,
		warnings: []Warning{{Kind: WarnUnrecognizedLine, Line: c.lineNo(0), Text: line}},
	}
}

// articleLine is "<name> <tax category> <total>"
type articleLine struct {
	name  string
	tax   string
	total decimal.Decimal
}

func parseArticle(line string) *articleLine {
	m := itemPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	total, err := parseAmount(m[3])
	if err != nil {
		return nil
	}
	name := strings.TrimSpace(m[1])
	if naming.StripMarker(name) == "" {
		return nil
	}
	return &articleLine{name: name, tax: m[2], total: total}
}

func (a *articleLine) lineItem() *models.LineItem {
	return &models.LineItem{
		RawName:        a.name,
		NormalizedName: naming.Normalize(a.name),
		TotalPrice:     a.total,
		TaxCategory:    a.tax,
		IsMultiPack:    naming.IsMultiPack(a.name),
	}
}

// discountLine is either a campaign ("[<n> x] <label> [<tax>] <amount>") or
// a percentage promotion ("<label> <±N>% [<tax>] <amount>")
type discountLine struct {
	label  string
	bulk   int // 0 when the line has no "<n> x" qualifier
	amount decimal.Decimal
}

func parseDiscount(line string) *discountLine {
	if m := percentDiscountPattern.FindStringSubmatch(line); m != nil {
		amount, err := parseAmount(m[4])
		if err != nil {
			return nil
		}
		return &discountLine{
			label:  strings.TrimSpace(m[1]) + " " + m[2] + "%",
			amount: amount.Abs(),
		}
	}
	if m := bulkDiscountPattern.FindStringSubmatch(line); m != nil {
		amount, err := parseAmount(m[4])
		if err != nil {
			return nil
		}
		d := &discountLine{label: strings.TrimSpace(m[2]), amount: amount.Abs()}
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil
			}
			d.bulk = n
		}
		return d
	}
	return nil
}

// attachDiscount looks at the line `at` positions ahead. A discount line
// there is always consumed; a bulk discount whose count differs from the
// item quantity is not attached.
func attachDiscount(c *cursor, at int, item *models.LineItem) (int, *Warning) {
	line, ok := c.peek(at)
	if !ok {
		return 0, nil
	}
	d := parseDiscount(line)
	if d == nil {
		return 0, nil
	}

	if d.bulk > 0 {
		qty := item.Quantity.Round(0).IntPart()
		if qty != int64(d.bulk) {
			return 1, &Warning{
				Kind:   WarnDiscountMismatch,
				Line:   c.lineNo(at),
				Text:   line,
				Detail: fmt.Sprintf("discount for %d, item %q has quantity %s", d.bulk, item.RawName, item.Quantity.String()),
			}
		}
		item.Discount = d.amount
		item.DiscountLabel = fmt.Sprintf("%d× %s", d.bulk, d.label)
		return 1, nil
	}

	item.Discount = d.amount
	item.DiscountLabel = d.label
	return 1, nil
}
