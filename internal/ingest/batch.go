package ingest

import (
	"context"
	"fmt"
	"io"
	"os"

	"grocerybooks/internal/logger"
	"grocerybooks/internal/parser"
)

// Source is the text of one receipt. Name identifies it in results and logs.
type Source struct {
	Name  string
	Lines []string
}

// SourceFromReader reads one receipt from r
func SourceFromReader(name string, r io.Reader) (Source, error) {
	lines, err := parser.ReadLines(r)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Source{Name: name, Lines: lines}, nil
}

// SourceFromFile reads one receipt text file
func SourceFromFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("open receipt file: %w", err)
	}
	defer f.Close()
	return SourceFromReader(path, f)
}

type BatchResult struct {
	Source  string
	Outcome *Outcome
	Err     error
}

// BatchSummary counts the results of one batch
type BatchSummary struct {
	Ingested int
	Failed   int
}

func Summarize(results []BatchResult) BatchSummary {
	var s BatchSummary
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
		} else {
			s.Ingested++
		}
	}
	return s
}

// IngestBatch ingests the sources in order. Each receipt succeeds or fails
// on its own; a failure never undoes receipts stored before it. A cancelled
// context stops the batch and marks the remaining sources with ctx.Err().
func (in *Ingester) IngestBatch(ctx context.Context, sources []Source) []BatchResult {
	log := logger.FromContext(ctx)
	results := make([]BatchResult, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			results = append(results, BatchResult{Source: src.Name, Err: err})
			continue
		}
		out, err := in.Ingest(ctx, src.Lines)
		if err != nil {
			err = fmt.Errorf("%s: %w", src.Name, err)
		}
		results = append(results, BatchResult{Source: src.Name, Outcome: out, Err: err})
	}

	s := Summarize(results)
	log.Info("batch_ingested", "sources", len(sources), "ingested", s.Ingested, "failed", s.Failed)
	return results
}
