package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"grocerybooks/internal/database"
	"grocerybooks/internal/logger"
	"grocerybooks/internal/metrics"
	"grocerybooks/internal/models"
)

// JobHandler is a function that processes a job. It marks the job completed
// itself; an error sends the job back to the queue unless it is permanent.
type JobHandler func(ctx context.Context, job *models.Job, db *database.DB) error

// permanentError marks a failure that a retry cannot fix
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the worker fails the job without retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was wrapped by Permanent
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Worker processes background jobs from the queue
type Worker struct {
	db           *database.DB
	handlers     map[string]JobHandler
	stop         chan struct{}
	done         chan struct{}
	logger       *slog.Logger
	metrics      *metrics.Registry
	pollInterval time.Duration
	jobTimeout   time.Duration
}

// NewWorker creates a new job worker
func NewWorker(db *database.DB, logger *slog.Logger, reg *metrics.Registry, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Worker{
		db:           db,
		handlers:     make(map[string]JobHandler),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger,
		metrics:      reg,
		pollInterval: pollInterval,
		jobTimeout:   5 * time.Minute,
	}
}

// Register adds a handler for a job type
func (w *Worker) Register(jobType string, handler JobHandler) {
	w.handlers[jobType] = handler
}

// Start begins processing jobs in a background goroutine
func (w *Worker) Start() {
	go func() {
		defer close(w.done)
		w.logger.Info("job_worker_started", "poll_interval", w.pollInterval.String())

		for {
			select {
			case <-w.stop:
				w.logger.Info("job_worker_stopping")
				return
			default:
			}

			job, err := w.db.ClaimNextJob(context.Background())
			if err != nil {
				w.logger.Error("job_claim_error", "error", err.Error())
			}
			if job != nil {
				w.processJob(job)
				continue
			}

			// No pending jobs, wait before polling again
			select {
			case <-w.stop:
				w.logger.Info("job_worker_stopping")
				return
			case <-time.After(w.pollInterval):
			}
		}
	}()
}

// Stop signals the worker to stop and waits for it to finish
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
	w.logger.Info("job_worker_stopped")
}

// Drain processes pending jobs in the calling goroutine until the queue is
// empty or ctx is done, and returns how many jobs it ran
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		job, err := w.db.ClaimNextJob(ctx)
		if err != nil {
			return n, err
		}
		if job == nil {
			return n, nil
		}
		w.processJob(job)
		n++
	}
}

func (w *Worker) processJob(job *models.Job) {
	l := w.logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
	l.Info("job_processing_started")

	ctx, cancel := context.WithTimeout(logger.WithLogger(context.Background(), l), w.jobTimeout)
	defer cancel()

	handler, ok := w.handlers[job.JobType]
	if !ok {
		l.Error("job_unknown_type")
		w.count(job, database.JobFailed)
		if err := w.db.FailJob(ctx, job.ID, "unknown job type: "+job.JobType); err != nil {
			l.Error("job_status_update_failed", "error", err.Error())
		}
		return
	}

	err := handler(ctx, job, w.db)
	if err == nil {
		w.count(job, database.JobCompleted)
		l.Info("job_processing_completed")
		return
	}

	l.Error("job_processing_failed", "error", err.Error())
	if IsPermanent(err) || job.Attempts >= job.MaxAttempts {
		if !IsPermanent(err) {
			l.Warn("job_max_attempts_reached")
		}
		w.count(job, database.JobFailed)
		if err := w.db.FailJob(ctx, job.ID, err.Error()); err != nil {
			l.Error("job_status_update_failed", "error", err.Error())
		}
		return
	}

	l.Info("job_retrying")
	w.count(job, database.JobPending)
	if err := w.db.RetryJob(ctx, job.ID); err != nil {
		l.Error("job_status_update_failed", "error", err.Error())
	}
}

func (w *Worker) count(job *models.Job, status string) {
	w.metrics.JobsProcessed.WithLabelValues(job.JobType, status).Inc()
}
