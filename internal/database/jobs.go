package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"grocerybooks/internal/catalog"
	"grocerybooks/internal/models"
)

// Job statuses
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

const jobColumns = `id, job_type, payload, status, progress, result, attempts, max_attempts, created_at, started_at, completed_at`

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&job.ID, &job.JobType, &job.Payload, &job.Status, &job.Progress, &job.Result,
		&job.Attempts, &job.MaxAttempts, &job.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

// CreateJob creates a new job and returns its ID
func (db *DB) CreateJob(ctx context.Context, jobType string, payload any) (int64, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO jobs (job_type, payload)
		VALUES (?, ?)
	`, jobType, string(payloadJSON))
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return result.LastInsertId()
}

// ClaimNextJob atomically claims the next pending job for processing
func (db *DB) ClaimNextJob(ctx context.Context) (*models.Job, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Find next pending job
	job, err := scanJob(tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`))
	if err == sql.ErrNoRows {
		return nil, nil // No pending jobs
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}

	// Claim the job
	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'running', started_at = ?, attempts = attempts + 1
		WHERE id = ?
	`, now, job.ID)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	job.Status = JobRunning
	job.StartedAt = &now
	job.Attempts++

	return job, nil
}

// GetJob returns a job by ID
func (db *DB) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	job, err := scanJob(db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %d: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return job, nil
}

// DecodePayload unmarshals the JSON payload a job was created with
func DecodePayload[T any](job *models.Job) (T, error) {
	var payload T
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return payload, fmt.Errorf("job %d payload: %w", job.ID, err)
	}
	return payload, nil
}

// setJobState runs one status update; a job id that matches no row is
// reported as catalog.ErrNotFound
func (db *DB) setJobState(ctx context.Context, id int64, what, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err := mustAffect(res, err, what); err != nil {
		return fmt.Errorf("job %d: %w", id, err)
	}
	return nil
}

// UpdateJobProgress updates the progress percentage of a running job
func (db *DB) UpdateJobProgress(ctx context.Context, id int64, progress int) error {
	return db.setJobState(ctx, id, "update progress", `
		UPDATE jobs SET progress = ? WHERE id = ?
	`, progress, id)
}

// CompleteJob marks a job as completed with an optional result
func (db *DB) CompleteJob(ctx context.Context, id int64, result string) error {
	return db.setJobState(ctx, id, "complete job", `
		UPDATE jobs
		SET status = 'completed', progress = 100, result = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, result, id)
}

// CompleteJobWith stores result as the job's JSON result
func (db *DB) CompleteJobWith(ctx context.Context, id int64, result any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return db.CompleteJob(ctx, id, string(resultJSON))
}

// FailJob marks a job as failed with an error message
func (db *DB) FailJob(ctx context.Context, id int64, errMsg string) error {
	return db.setJobState(ctx, id, "fail job", `
		UPDATE jobs
		SET status = 'failed', result = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, errMsg, id)
}

// RetryJob puts a job back in the queue for another attempt
func (db *DB) RetryJob(ctx context.Context, id int64) error {
	return db.setJobState(ctx, id, "retry job", `
		UPDATE jobs
		SET status = 'pending', started_at = NULL
		WHERE id = ?
	`, id)
}
