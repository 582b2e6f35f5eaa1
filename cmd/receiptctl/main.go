package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/config"
	"grocerybooks/internal/database"
	"grocerybooks/internal/filestore"
	"grocerybooks/internal/ingest"
	"grocerybooks/internal/jobs"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/metrics"
	"grocerybooks/internal/models"
	"grocerybooks/internal/reconciliation"
	"grocerybooks/internal/version"
)

const usage = `Usage: receiptctl <command> [arguments]

Commands:
  parse <file>          parse a receipt text file and show what would be stored
  import <file>...      ingest receipt text files into the database
  merge                 fold products that share a normalized key
  enqueue <file>...     store receipt files and queue them for the server worker
  enqueue -merge        queue a product merge
  work                  process queued jobs until the queue is empty
  products              list the product catalog
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

type app struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	if args[0] == "--version" || args[0] == "-v" {
		fmt.Fprintln(stdout, version.String("receiptctl"))
		return 0
	}

	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	// Logs go to stderr so command output stays readable
	logger.SetDefault(logger.New(stderr, cfg.LogLevel))

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}
	commands := map[string]func(context.Context, []string) error{
		"parse":    a.parse,
		"import":   a.importFiles,
		"merge":    a.merge,
		"enqueue":  a.enqueue,
		"work":     a.work,
		"products": a.products,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err := cmd(ctx, args[1:]); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) ingester(db catalog.TxRunner, reg *metrics.Registry) (*ingest.Ingester, error) {
	brands, err := a.cfg.Brands()
	if err != nil {
		return nil, err
	}
	return ingest.New(db, ingest.Options{
		Parser:     a.cfg.ParserOptions(),
		Brands:     brands,
		Duplicates: a.cfg.Duplicates,
		Metrics:    reg,
	}), nil
}

func (a *app) openDB() (*database.DB, error) {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// parse resolves the receipt into an in-memory catalog, so nothing is written
func (a *app) parse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("parse takes exactly one file")
	}

	src, err := ingest.SourceFromFile(fs.Arg(0))
	if err != nil {
		return err
	}
	in, err := a.ingester(catalog.NewMemoryRepository(), nil)
	if err != nil {
		return err
	}
	out, err := in.Ingest(ctx, src.Lines)
	if err != nil {
		return err
	}
	a.printReceipt(out)
	return nil
}

func (a *app) printReceipt(out *ingest.Outcome) {
	r := out.Receipt
	fmt.Fprintf(a.stdout, "Receipt %s  %s  store %s  register %s  bon %s\n",
		r.ReceiptNumber, r.PurchasedAt.Format("2006-01-02 15:04"), r.StoreCode, r.RegisterNumber, r.BonNumber)

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tQTY\tUNIT PRICE\tTOTAL\tDISCOUNT\tTAX\t")
	for _, item := range r.Items {
		qty := item.Quantity.String() + " " + item.Unit
		discount := ""
		if !item.Discount.IsZero() {
			discount = "-" + item.Discount.StringFixed(2) + " " + item.DiscountLabel
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			item.Position+1, item.RawName, qty, item.UnitPrice.StringFixed(2),
			item.TotalPrice.StringFixed(2), discount, item.TaxCategory)
	}
	tw.Flush()

	fmt.Fprintf(a.stdout, "Total %s EUR (items %s), saved %s EUR\n",
		r.Total.StringFixed(2), r.ItemsTotal().StringFixed(2), r.Savings.StringFixed(2))
	for _, tt := range r.TaxTotals {
		fmt.Fprintf(a.stdout, "Tax %s %s%% = %s\n", tt.Category, tt.Rate.String(), tt.Amount.StringFixed(2))
	}
	if r.PointsEarned != 0 || r.PointsRedeemed != 0 {
		fmt.Fprintf(a.stdout, "Points earned %d, redeemed %d\n", r.PointsEarned, r.PointsRedeemed)
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(a.stdout, "warning: line %d: %s: %q %s\n", w.Line+1, w.Kind, w.Text, w.Detail)
	}
}

func (a *app) importFiles(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("import needs at least one file")
	}
	var sources []ingest.Source
	for _, path := range args {
		src, err := ingest.SourceFromFile(path)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	in, err := a.ingester(db, nil)
	if err != nil {
		return err
	}

	results := in.IngestBatch(ctx, sources)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.stdout, "FAIL %v\n", res.Err)
			continue
		}
		r := res.Outcome.Receipt
		fmt.Fprintf(a.stdout, "ok   %s: receipt %s, %d items, %d new products, %d warnings\n",
			res.Source, r.ReceiptNumber, len(r.Items), res.Outcome.ProductsCreated, len(res.Outcome.Warnings))
	}
	s := ingest.Summarize(results)
	fmt.Fprintf(a.stdout, "%d ingested, %d failed\n", s.Ingested, s.Failed)
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d receipts failed", s.Failed, len(results))
	}
	return nil
}

func (a *app) merge(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("merge takes no arguments")
	}
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := reconciliation.NewMerger(db).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%d duplicate groups, %d products merged, %d groups failed\n",
		report.Groups, report.Removed, len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(a.stdout, "FAIL %v\n", f)
	}
	return nil
}

func (a *app) enqueue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	mergeJob := fs.Bool("merge", false, "queue a product merge instead of receipt files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*mergeJob && fs.NArg() == 0 {
		return errors.New("enqueue needs at least one file or -merge")
	}

	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if *mergeJob {
		id, err := db.CreateJob(ctx, jobs.TypeMergeProducts, struct{}{})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "job %d: %s\n", id, jobs.TypeMergeProducts)
		return nil
	}

	files, err := filestore.New(a.cfg.UploadsPath)
	if err != nil {
		return err
	}
	for _, path := range fs.Args() {
		name, err := saveFile(files, path)
		if err != nil {
			return err
		}
		id, err := db.CreateJob(ctx, jobs.TypeIngestReceipt, jobs.IngestReceiptPayload{FilePath: name})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "job %d: %s %s\n", id, jobs.TypeIngestReceipt, filepath.Base(path))
	}
	return nil
}

func saveFile(files *filestore.Store, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open receipt file: %w", err)
	}
	defer f.Close()
	return files.Save(filepath.Base(path), f)
}

func (a *app) work(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("work takes no arguments")
	}
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	files, err := filestore.New(a.cfg.UploadsPath)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	in, err := a.ingester(db, reg)
	if err != nil {
		return err
	}
	w := jobs.NewWorker(db, logger.Default(), reg, a.cfg.PollInterval)
	jobs.Register(w, files, in, reconciliation.NewMerger(db), reg)

	n, err := w.Drain(ctx)
	fmt.Fprintf(a.stdout, "%d jobs processed\n", n)
	return err
}

func (a *app) products(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("products takes no arguments")
	}
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var products []models.Product
	err = db.InTx(ctx, func(repo catalog.Repository) error {
		var err error
		products, err = repo.ListProducts(ctx)
		return err
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPURCHASES\tAVG\tLAST\t")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t\n",
			p.ID, p.DisplayName, p.Brand, p.PurchaseCount, p.AvgUnitPrice.StringFixed(2), p.LastUnitPrice.StringFixed(2))
	}
	return tw.Flush()
}
