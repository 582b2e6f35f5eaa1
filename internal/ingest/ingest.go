// Package ingest stores parsed receipts. Each receipt is all-or-nothing:
// parsing happens first, then one transaction covers the duplicate check,
// the store, the receipt and every product update it causes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/metrics"
	"grocerybooks/internal/models"
	"grocerybooks/internal/naming"
	"grocerybooks/internal/parser"
)

// DuplicatePolicy decides what happens to a receipt number already on file
type DuplicatePolicy int

const (
	// RejectDuplicates fails the new receipt with *DuplicateReceiptError
	RejectDuplicates DuplicatePolicy = iota
	// OverwriteDuplicates removes the stored receipt and ingests the new one
	OverwriteDuplicates
)

// ParseDuplicatePolicy reads "reject" or "overwrite"
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectDuplicates, nil
	case "overwrite":
		return OverwriteDuplicates, nil
	default:
		return RejectDuplicates, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

func (p DuplicatePolicy) String() string {
	if p == OverwriteDuplicates {
		return "overwrite"
	}
	return "reject"
}

var ErrDuplicateReceipt = errors.New("duplicate receipt")

type DuplicateReceiptError struct {
	ReceiptNumber string
	ExistingID    int64
}

func (e *DuplicateReceiptError) Error() string {
	return fmt.Sprintf("receipt %s already ingested as %d", e.ReceiptNumber, e.ExistingID)
}

func (e *DuplicateReceiptError) Unwrap() error { return ErrDuplicateReceipt }

type Options struct {
	Parser     parser.Options
	Brands     *naming.BrandExtractor // nil uses the built-in table
	Duplicates DuplicatePolicy
	Metrics    *metrics.Registry // nil gets a private registry
}

type Ingester struct {
	db         catalog.TxRunner
	parser     *parser.ReceiptParser
	resolver   *catalog.Resolver
	duplicates DuplicatePolicy
	metrics    *metrics.Registry
	now        func() time.Time
}

func New(db catalog.TxRunner, opts Options) *Ingester {
	m := opts.Metrics
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Ingester{
		db:         db,
		parser:     parser.NewReceiptParser(opts.Parser),
		resolver:   catalog.NewResolver(opts.Brands),
		duplicates: opts.Duplicates,
		metrics:    m,
		now:        time.Now,
	}
}

// Outcome describes one stored receipt
type Outcome struct {
	IngestID        string
	Receipt         *models.Receipt
	Warnings        []parser.Warning
	ProductsCreated int
	Replaced        bool // an earlier receipt with the same number was removed
	ProductsDropped int  // products deleted along with the replaced receipt
}

// Ingest parses the lines of one receipt and stores it. On error nothing
// of this receipt is persisted.
func (in *Ingester) Ingest(ctx context.Context, lines []string) (*Outcome, error) {
	out := &Outcome{IngestID: uuid.NewString()}
	ctx = logger.WithIngestID(ctx, out.IngestID)
	log := logger.FromContext(ctx)
	start := in.now()

	result, err := in.parser.Parse(ctx, lines)
	if err != nil {
		in.reject(ctx, err)
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	out.Receipt = result.Receipt
	out.Warnings = result.Warnings
	for _, w := range result.Warnings {
		in.metrics.LineWarnings.WithLabelValues(string(w.Kind)).Inc()
	}

	err = in.db.InTx(ctx, func(repo catalog.Repository) error {
		return in.store(ctx, repo, out)
	})
	if err != nil {
		in.reject(ctx, err)
		return nil, err
	}

	r := out.Receipt
	in.metrics.ReceiptsIngested.Inc()
	in.metrics.LineItems.Add(float64(len(r.Items)))
	in.metrics.ProductsCreated.Add(float64(out.ProductsCreated))
	in.metrics.IngestLatencySec.Observe(in.now().Sub(start).Seconds())

	log.Info("receipt_ingested",
		"receipt_id", r.ID,
		"receipt_number", r.ReceiptNumber,
		"store_code", r.StoreCode,
		"purchased_at", r.PurchasedAt,
		"total", r.Total.StringFixed(2),
		"items", len(r.Items),
		"products_created", out.ProductsCreated,
		"warnings", len(out.Warnings),
		"replaced", out.Replaced,
	)
	if !r.ItemsTotal().Equal(r.Total) {
		// Items outside the recognized shapes, or rounding on the printed total
		log.Debug("receipt_total_mismatch",
			"receipt_number", r.ReceiptNumber,
			"items_total", r.ItemsTotal().StringFixed(2),
			"total", r.Total.StringFixed(2),
		)
	}
	return out, nil
}

func (in *Ingester) store(ctx context.Context, repo catalog.Repository, out *Outcome) error {
	r := out.Receipt

	existing, err := repo.ReceiptByNumber(ctx, r.ReceiptNumber)
	if err != nil {
		return fmt.Errorf("lookup receipt %s: %w", r.ReceiptNumber, err)
	}
	if existing != nil {
		if in.duplicates == RejectDuplicates {
			return &DuplicateReceiptError{ReceiptNumber: r.ReceiptNumber, ExistingID: existing.ID}
		}
		dropped, err := catalog.RemoveReceipt(ctx, repo, existing.ID)
		if err != nil {
			return fmt.Errorf("replace receipt %s: %w", r.ReceiptNumber, err)
		}
		out.Replaced = true
		out.ProductsDropped = dropped
	}

	if r.StoreCode != "" {
		storeID, err := ensureStore(ctx, repo, r.StoreCode)
		if err != nil {
			return err
		}
		r.StoreID = storeID
	}

	id, err := repo.CreateReceipt(ctx, r)
	if err != nil {
		return fmt.Errorf("create receipt %s: %w", r.ReceiptNumber, err)
	}
	r.ID = id

	res, err := in.resolver.Resolve(ctx, repo, r)
	if err != nil {
		return err
	}
	out.ProductsCreated = res.ProductsCreated
	return nil
}

func ensureStore(ctx context.Context, repo catalog.Repository, code string) (int64, error) {
	s, err := repo.StoreByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("lookup store %s: %w", code, err)
	}
	if s != nil {
		return s.ID, nil
	}
	id, err := repo.CreateStore(ctx, &models.Store{Code: code, Name: "Filiale " + code})
	if err != nil {
		return 0, fmt.Errorf("create store %s: %w", code, err)
	}
	return id, nil
}

func (in *Ingester) reject(ctx context.Context, err error) {
	reason := metrics.ReasonStorage
	switch {
	case errors.Is(err, parser.ErrStructuralValidation):
		reason = metrics.ReasonStructural
	case errors.Is(err, parser.ErrUnrecognizedLine):
		reason = metrics.ReasonUnrecognized
	case errors.Is(err, ErrDuplicateReceipt):
		reason = metrics.ReasonDuplicate
	}
	in.metrics.ReceiptsRejected.WithLabelValues(reason).Inc()
	logger.FromContext(ctx).Warn("receipt_rejected", "reason", reason, "error", err.Error())
}
