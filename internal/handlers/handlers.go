package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/database"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/version"
)

type Handler struct {
	db *database.DB
}

func New(db *database.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("response_encode_failed", "error", err.Error())
	}
}

// Health reports whether the database answers
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("health_check_failed", "error", err.Error())
		h.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) APIVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version":    version.Version,
		"build_time": version.BuildTime,
		"git_commit": version.GitCommit,
	})
}

func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	job, err := h.db.GetJob(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("job_lookup_failed", "job_id", id, "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"id":       job.ID,
		"type":     job.JobType,
		"status":   job.Status,
		"progress": job.Progress,
		"attempts": job.Attempts,
		"result":   job.Result,
	})
}

// Routes registers the handlers on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /api/version", h.APIVersion)
	mux.HandleFunc("GET /api/jobs/{id}", h.JobStatus)
}
