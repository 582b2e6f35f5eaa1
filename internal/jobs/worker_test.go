package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/database"
	"grocerybooks/internal/filestore"
	"grocerybooks/internal/ingest"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/metrics"
	"grocerybooks/internal/models"
	"grocerybooks/internal/parser"
	"grocerybooks/internal/reconciliation"
)

const receiptText = `Filiale: 1234
Re-Nr: 1234-0003-4711
Datum: 14.03.2025  Zeit: 17:42
Brot B 2,49
Butter B 2,99
SUMME EUR 5,48
`

type fixture struct {
	db     *database.DB
	files  *filestore.Store
	worker *Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "receipts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	files, err := filestore.New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}

	reg := metrics.NewRegistry()
	in := ingest.New(db, ingest.Options{Parser: parser.Options{Location: time.UTC}, Metrics: reg})
	w := NewWorker(db, slog.New(slog.NewJSONHandler(io.Discard, nil)), reg, time.Millisecond)
	Register(w, files, in, reconciliation.NewMerger(db), reg)
	return &fixture{db: db, files: files, worker: w}
}

func (f *fixture) enqueue(t *testing.T, text string) int64 {
	t.Helper()
	name, err := f.files.Save("receipt.txt", strings.NewReader(text))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id, err := f.db.CreateJob(context.Background(), TypeIngestReceipt, IngestReceiptPayload{FilePath: name})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

func (f *fixture) job(t *testing.T, id int64) *models.Job {
	t.Helper()
	job, err := f.db.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	return job
}

func TestWorker_IngestReceipt(t *testing.T) {
	f := newFixture(t)
	id := f.enqueue(t, receiptText)

	n, err := f.worker.Drain(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("drain: %d %v", n, err)
	}
	job := f.job(t, id)
	if job.Status != database.JobCompleted || !strings.Contains(job.Result, `"products_created":2`) {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestWorker_PermanentFailureIsNotRetried(t *testing.T) {
	f := newFixture(t)
	first := f.enqueue(t, receiptText)
	dup := f.enqueue(t, receiptText)
	broken := f.enqueue(t, "Brot B 2,49\n")

	if _, err := f.worker.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if job := f.job(t, first); job.Status != database.JobCompleted {
		t.Fatalf("first receipt: %+v", job)
	}
	for _, id := range []int64{dup, broken} {
		job := f.job(t, id)
		if job.Status != database.JobFailed || job.Attempts != 1 {
			t.Fatalf("expected a single failed attempt: %+v", job)
		}
	}
	if job := f.job(t, dup); !strings.Contains(job.Result, "already ingested") {
		t.Fatalf("unexpected duplicate result: %q", job.Result)
	}
}

func TestWorker_MergeProducts(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, receiptText)
	if _, err := f.worker.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := f.db.Exec(`INSERT INTO products (normalized_key, display_name) VALUES ('brot', 'BROT')`); err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}

	id, err := f.db.CreateJob(context.Background(), TypeMergeProducts, struct{}{})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if _, err := f.worker.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	job := f.job(t, id)
	if job.Status != database.JobCompleted || !strings.Contains(job.Result, `"removed":1`) {
		t.Fatalf("unexpected merge job: %+v", job)
	}
}

func TestWorker_UnknownTypeAndRetry(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.worker.Register("flaky", func(ctx context.Context, job *models.Job, db *database.DB) error {
		calls++
		return errors.New("temporarily unavailable")
	})

	unknown, _ := f.db.CreateJob(context.Background(), "nope", struct{}{})
	flaky, _ := f.db.CreateJob(context.Background(), "flaky", struct{}{})

	if _, err := f.worker.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if job := f.job(t, unknown); job.Status != database.JobFailed {
		t.Fatalf("unknown type must fail: %+v", job)
	}
	job := f.job(t, flaky)
	if job.Status != database.JobFailed || job.Attempts != job.MaxAttempts || calls != job.MaxAttempts {
		t.Fatalf("expected %d attempts, got %+v (calls %d)", job.MaxAttempts, job, calls)
	}
}

func TestWorker_StartStop(t *testing.T) {
	f := newFixture(t)
	id := f.enqueue(t, receiptText)

	f.worker.Start()
	deadline := time.Now().Add(5 * time.Second)
	for f.job(t, id).Status != database.JobCompleted {
		if time.Now().After(deadline) {
			f.worker.Stop()
			t.Fatalf("job not processed in time: %+v", f.job(t, id))
		}
		time.Sleep(10 * time.Millisecond)
	}
	f.worker.Stop()
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad")
	err := Permanent(base)
	if !IsPermanent(err) || !errors.Is(err, base) {
		t.Fatalf("unexpected wrapping: %v", err)
	}
	if IsPermanent(base) || Permanent(nil) != nil {
		t.Fatalf("plain errors are not permanent")
	}
}

func TestIngestReceiptHandler_LogsProgressFailure(t *testing.T) {
	f := newFixture(t)
	name, err := f.files.Save("receipt.txt", strings.NewReader(receiptText))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	var buf bytes.Buffer
	ctx := logger.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	job := &models.Job{ID: 999, JobType: TypeIngestReceipt, Payload: `{"file_path":"` + name + `"}`}

	err = f.worker.handlers[TypeIngestReceipt](ctx, job, f.db)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected completion of an unknown job to fail with ErrNotFound, got %v", err)
	}
	if !strings.Contains(buf.String(), `"msg":"job_progress_update_failed"`) {
		t.Fatalf("progress failure not logged: %s", buf.String())
	}
}
