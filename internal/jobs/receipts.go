package jobs

import (
	"context"
	"errors"

	"grocerybooks/internal/database"
	"grocerybooks/internal/filestore"
	"grocerybooks/internal/ingest"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/metrics"
	"grocerybooks/internal/models"
	"grocerybooks/internal/parser"
	"grocerybooks/internal/reconciliation"
)

// Job types
const (
	TypeIngestReceipt = "ingest_receipt"
	TypeMergeProducts = "merge_products"
)

// IngestReceiptPayload is the JSON payload for ingest_receipt jobs
type IngestReceiptPayload struct {
	FilePath string `json:"file_path"` // name inside the filestore
}

// IngestReceiptHandler stores one uploaded receipt text file. Receipts that
// fail validation or are duplicates fail the job right away.
func IngestReceiptHandler(files *filestore.Store, in *ingest.Ingester) JobHandler {
	return func(ctx context.Context, job *models.Job, db *database.DB) error {
		payload, err := database.DecodePayload[IngestReceiptPayload](job)
		if err != nil {
			return Permanent(err)
		}

		lines, err := files.ReadLines(payload.FilePath)
		if err != nil {
			return Permanent(err)
		}
		if err := db.UpdateJobProgress(ctx, job.ID, 20); err != nil {
			logger.FromContext(ctx).Warn("job_progress_update_failed", "error", err.Error())
		}

		out, err := in.Ingest(ctx, lines)
		if err != nil {
			if errors.Is(err, parser.ErrStructuralValidation) ||
				errors.Is(err, parser.ErrUnrecognizedLine) ||
				errors.Is(err, ingest.ErrDuplicateReceipt) {
				return Permanent(err)
			}
			return err
		}

		return db.CompleteJobWith(ctx, job.ID, map[string]any{
			"ingest_id":        out.IngestID,
			"receipt_id":       out.Receipt.ID,
			"receipt_number":   out.Receipt.ReceiptNumber,
			"items":            len(out.Receipt.Items),
			"products_created": out.ProductsCreated,
			"warnings":         len(out.Warnings),
			"replaced":         out.Replaced,
		})
	}
}

// MergeProductsHandler runs the duplicate product consolidation. Groups that
// failed are reported in the job result; they do not fail the job.
func MergeProductsHandler(m *reconciliation.Merger, reg *metrics.Registry) JobHandler {
	return func(ctx context.Context, job *models.Job, db *database.DB) error {
		report, err := m.Run(ctx)
		if err != nil {
			return err
		}
		reg.ProductsMerged.Add(float64(report.Removed))
		reg.MergeFailures.Add(float64(len(report.Failed)))

		failed := make([]string, 0, len(report.Failed))
		for _, f := range report.Failed {
			failed = append(failed, f.Error())
		}
		return db.CompleteJobWith(ctx, job.ID, map[string]any{
			"groups":  report.Groups,
			"removed": report.Removed,
			"failed":  failed,
		})
	}
}

// Register wires the receipt job handlers into w
func Register(w *Worker, files *filestore.Store, in *ingest.Ingester, m *reconciliation.Merger, reg *metrics.Registry) {
	w.Register(TypeIngestReceipt, IngestReceiptHandler(files, in))
	w.Register(TypeMergeProducts, MergeProductsHandler(m, reg))
}
