package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const receipt = `BILLA AG
Filiale: 1234
Re-Nr: 1234-0003-4711
Datum: 14.03.2025  Zeit: 17:42
3 x 1,99
Milch B 5,97
Paprika B 2,50
FILIALAKTION 25% B -0,63
SUMME EUR 7,84
`

type harness struct {
	dir string
	env map[string]string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{dir: dir, env: map[string]string{
		"RECEIPTS_DB_PATH":  filepath.Join(dir, "data", "receipts.db"),
		"RECEIPTS_TIMEZONE": "UTC",
		"LOG_LEVEL":         "error",
	}}
}

func (h *harness) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (h *harness) run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, func(k string) string { return h.env[k] })
	return code, stdout.String() + stderr.String()
}

func TestParse_DryRun(t *testing.T) {
	h := newHarness(t)
	code, out := h.run(t, "parse", h.file(t, "r.txt", receipt))
	if code != 0 {
		t.Fatalf("exit %d: %s", code, out)
	}
	for _, want := range []string{"Receipt 1234-0003-4711", "Milch", "-0.63 FILIALAKTION 25%", "Total 7.84 EUR"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	if _, err := os.Stat(h.env["RECEIPTS_DB_PATH"]); !os.IsNotExist(err) {
		t.Fatalf("parse must not create the database")
	}
}

func TestImportMergeProducts(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "r.txt", receipt)

	if code, out := h.run(t, "import", path); code != 0 || !strings.Contains(out, "1 ingested, 0 failed") {
		t.Fatalf("import exit %d: %s", code, out)
	}
	if code, out := h.run(t, "import", path); code != 1 || !strings.Contains(out, "already ingested") {
		t.Fatalf("duplicate import exit %d: %s", code, out)
	}
	if code, out := h.run(t, "merge"); code != 0 || !strings.Contains(out, "0 duplicate groups") {
		t.Fatalf("merge exit %d: %s", code, out)
	}
	code, out := h.run(t, "products")
	if code != 0 || !strings.Contains(out, "Milch") || !strings.Contains(out, "Paprika") {
		t.Fatalf("products exit %d: %s", code, out)
	}
}

func TestEnqueueAndWork(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "r.txt", receipt)

	if code, out := h.run(t, "enqueue", path); code != 0 || !strings.Contains(out, "ingest_receipt") {
		t.Fatalf("enqueue exit %d: %s", code, out)
	}
	if code, out := h.run(t, "enqueue", "-merge"); code != 0 || !strings.Contains(out, "merge_products") {
		t.Fatalf("enqueue merge exit %d: %s", code, out)
	}
	if code, out := h.run(t, "work"); code != 0 || !strings.Contains(out, "2 jobs processed") {
		t.Fatalf("work exit %d: %s", code, out)
	}
}

func TestRun_UsageAndVersion(t *testing.T) {
	h := newHarness(t)
	if code, _ := h.run(t); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
	if code, _ := h.run(t, "frobnicate"); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
	if code, out := h.run(t, "--version"); code != 0 || !strings.HasPrefix(out, "receiptctl ") {
		t.Fatalf("unexpected version output %d %q", code, out)
	}

	h.env["RECEIPTS_DUPLICATE_POLICY"] = "sometimes"
	if code, out := h.run(t, "merge"); code != 1 || !strings.Contains(out, "RECEIPTS_DUPLICATE_POLICY") {
		t.Fatalf("expected config error, got %d %s", code, out)
	}
}
