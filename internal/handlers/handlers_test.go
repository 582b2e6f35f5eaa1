package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"grocerybooks/internal/database"
	"grocerybooks/internal/logger"
)

func newServer(t *testing.T) (*database.DB, http.Handler) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "receipts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	mux := http.NewServeMux()
	New(db).Routes(mux)
	return db, logger.HTTPMiddleware(mux, nil)
}

func TestRoutes(t *testing.T) {
	db, srv := newServer(t)
	id, err := db.CreateJob(context.Background(), "merge_products", struct{}{})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/api/version", http.StatusOK},
		{"/api/jobs/1", http.StatusOK},
		{"/api/jobs/99", http.StatusNotFound},
		{"/api/jobs/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.status, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Errorf("GET %s: missing request id", tt.path)
		}
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/jobs/1", nil))
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "pending" || body["id"] != float64(id) {
		t.Fatalf("unexpected job body: %+v", body)
	}
}
