package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/parser"
)

func receiptLines(number string, milk string) []string {
	return []string{
		"BILLA AG",
		"Filiale: 1234",
		"Kassa: 3",
		"Bon-Nr: 4711",
		"Re-Nr: " + number,
		"Datum: 14.03.2025  Zeit: 17:42",
		"0,512 kg x 3,98 EUR/kg",
		"Bananen B 2,04",
		"3 x " + milk,
		"Milch B " + triple(milk),
		"Paprika B 2,50",
		"FILIALAKTION 25% B -0,63",
		"SUMME EUR 9,88",
	}
}

// triple returns 3 × a comma-decimal amount, formatted the same way
func triple(amount string) string {
	d := decimal.RequireFromString(strings.Replace(amount, ",", ".", 1)).Mul(decimal.NewFromInt(3))
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func newIngester(repo catalog.TxRunner, dup DuplicatePolicy) *Ingester {
	return New(repo, Options{
		Parser:     parser.Options{Location: time.UTC},
		Duplicates: dup,
	})
}

func TestIngest_EndToEnd(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	out, err := newIngester(repo, RejectDuplicates).Ingest(context.Background(), receiptLines("1-1-1", "1,99"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := catalog.MemoryCounts{Stores: 1, Receipts: 1, LineItems: 3, Products: 3, PriceHistory: 3}
	if got := repo.Counts(); got != want {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if out.ProductsCreated != 3 || out.IngestID == "" || out.Replaced {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	r := out.Receipt
	if r.ID == 0 || r.StoreID == 0 || r.ReceiptNumber != "1-1-1" {
		t.Fatalf("unexpected receipt: %+v", r)
	}
	for i, item := range r.Items {
		if item.ID == 0 || item.ProductID == 0 || item.ReceiptID != r.ID || item.Position != i {
			t.Fatalf("item %d not stored: %+v", i, item)
		}
	}

	products := repo.Products()
	if products[1].NormalizedKey != "milch" || !products[1].LastUnitPrice.Equal(decimal.RequireFromString("1.99")) {
		t.Fatalf("unexpected milk product: %+v", products[1])
	}
}

func TestIngest_StructuralFailurePersistsNothing(t *testing.T) {
	lines := receiptLines("1-1-1", "1,99")
	var withoutNumber []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "Re-Nr") {
			withoutNumber = append(withoutNumber, l)
		}
	}

	repo := catalog.NewMemoryRepository()
	_, err := newIngester(repo, RejectDuplicates).Ingest(context.Background(), withoutNumber)
	if !errors.Is(err, parser.ErrStructuralValidation) {
		t.Fatalf("expected structural validation error, got %v", err)
	}
	var sv *parser.StructuralValidationError
	if !errors.As(err, &sv) || len(sv.Missing) != 1 || sv.Missing[0] != parser.FieldReceiptNumber {
		t.Fatalf("unexpected missing fields: %+v", sv)
	}
	if got := repo.Counts(); got != (catalog.MemoryCounts{}) {
		t.Fatalf("nothing may be stored: %+v", got)
	}
}

func TestIngest_FailPolicyPersistsNothing(t *testing.T) {
	lines := receiptLines("1-1-1", "1,99")
	lines = append(lines[:8], append([]string{"?? unleserlich ??"}, lines[8:]...)...)

	repo := catalog.NewMemoryRepository()
	in := New(repo, Options{Parser: parser.Options{Location: time.UTC, Unrecognized: parser.PolicyFail}})
	if _, err := in.Ingest(context.Background(), lines); !errors.Is(err, parser.ErrUnrecognizedLine) {
		t.Fatalf("expected unrecognized line error, got %v", err)
	}
	if got := repo.Counts(); got != (catalog.MemoryCounts{}) {
		t.Fatalf("nothing may be stored: %+v", got)
	}
}

func TestIngest_DuplicateRejected(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	in := newIngester(repo, RejectDuplicates)
	first, err := in.Ingest(context.Background(), receiptLines("1-1-1", "1,99"))
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	before := repo.Counts()

	_, err = in.Ingest(context.Background(), receiptLines("1-1-1", "2,09"))
	var dup *DuplicateReceiptError
	if !errors.As(err, &dup) || !errors.Is(err, ErrDuplicateReceipt) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if dup.ExistingID != first.Receipt.ID || dup.ReceiptNumber != "1-1-1" {
		t.Fatalf("unexpected duplicate error: %+v", dup)
	}
	if got := repo.Counts(); got != before {
		t.Fatalf("rejected receipt changed the store: %+v vs %+v", got, before)
	}
}

func TestIngest_DuplicateOverwritten(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	in := newIngester(repo, OverwriteDuplicates)
	if _, err := in.Ingest(context.Background(), receiptLines("1-1-1", "1,99")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	out, err := in.Ingest(context.Background(), receiptLines("1-1-1", "2,09"))
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if !out.Replaced {
		t.Fatalf("expected replaced outcome: %+v", out)
	}

	want := catalog.MemoryCounts{Stores: 1, Receipts: 1, LineItems: 3, Products: 3, PriceHistory: 3}
	if got := repo.Counts(); got != want {
		t.Fatalf("unexpected counts after overwrite: %+v", got)
	}
	milk := repo.Products()
	for _, p := range milk {
		if p.NormalizedKey == "milch" {
			if p.PurchaseCount != 1 || !p.LastUnitPrice.Equal(decimal.RequireFromString("2.09")) {
				t.Fatalf("stale milk stats: %+v", p)
			}
			return
		}
	}
	t.Fatalf("milk product missing")
}

func TestIngestBatch_Independent(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	in := newIngester(repo, RejectDuplicates)

	broken := receiptLines("2-2-2", "1,99")[:5] // no date, no total
	results := in.IngestBatch(context.Background(), []Source{
		{Name: "a.txt", Lines: receiptLines("1-1-1", "1,99")},
		{Name: "b.txt", Lines: broken},
		{Name: "c.txt", Lines: receiptLines("3-3-3", "2,09")},
		{Name: "d.txt", Lines: receiptLines("1-1-1", "1,99")},
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("good receipts failed: %v / %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, parser.ErrStructuralValidation) {
		t.Fatalf("expected structural failure for b.txt, got %v", results[1].Err)
	}
	if !errors.Is(results[3].Err, ErrDuplicateReceipt) {
		t.Fatalf("expected duplicate for d.txt, got %v", results[3].Err)
	}
	if s := Summarize(results); s.Ingested != 2 || s.Failed != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	counts := repo.Counts()
	if counts.Receipts != 2 || counts.Products != 3 || counts.PriceHistory != 6 || counts.Stores != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestIngestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := newIngester(catalog.NewMemoryRepository(), RejectDuplicates).IngestBatch(ctx, []Source{
		{Name: "a.txt", Lines: receiptLines("1-1-1", "1,99")},
	})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", results[0].Err)
	}
}

func TestSourceFromReader(t *testing.T) {
	src, err := SourceFromReader("mem", strings.NewReader("Re-Nr: 1\r\nSUMME EUR 1,00\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Lines) != 2 || src.Lines[0] != "Re-Nr: 1" {
		t.Fatalf("unexpected lines: %q", src.Lines)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    DuplicatePolicy
		wantErr bool
	}{
		{"", RejectDuplicates, false},
		{"reject", RejectDuplicates, false},
		{"Overwrite", OverwriteDuplicates, false},
		{"merge", RejectDuplicates, true},
	}
	for _, tt := range tests {
		got, err := ParseDuplicatePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDuplicatePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}
