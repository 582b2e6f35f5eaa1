package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.ReceiptsIngested.Inc()
	r.ReceiptsRejected.WithLabelValues(ReasonDuplicate).Add(2)
	r.LineWarnings.WithLabelValues("stray_discount").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		"receipts_ingested_total 1",
		`receipts_rejected_total{reason="duplicate"} 2`,
		`receipt_line_warnings_total{kind="stray_discount"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in exposition:\n%s", want, out)
		}
	}
}

func TestRegistry_Gather(t *testing.T) {
	r := NewRegistry()
	r.ProductsMerged.Add(3)

	families, err := r.reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "products_merged_total" {
			if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 3 {
				t.Fatalf("expected 3, got %v", v)
			}
			return
		}
	}
	t.Fatalf("products_merged_total not gathered")
}
