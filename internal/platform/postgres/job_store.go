package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgardner/taskflow-api/internal/job"
	"github.com/rgardner/taskflow-api/internal/platform/logger"
	"github.com/rgardner/taskflow-api/internal/store"
)

// JobExecutor runs the work for a recovered job of a given type from its
// serialized payload. Executors are registered at wiring time so jobs loaded
// from the database can be re-executed with their original row IDs.
type JobExecutor func(ctx context.Context, payload []byte) error

// PostgresJobStore implements the job.JobStore interface using PostgreSQL
type PostgresJobStore struct {
	db        store.DBTX
	executors map[string]JobExecutor
}

// NewPostgresJobStore creates a new PostgresJobStore
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	return &PostgresJobStore{
		db:        db,
		executors: make(map[string]JobExecutor),
	}
}

// Ensure PostgresJobStore implements job.JobStore interface
var _ job.JobStore = (*PostgresJobStore)(nil)

// RegisterExecutor associates a job type with the function that executes it.
// Jobs recovered from the database use the registered executor so their
// original IDs are preserved for status tracking.
func (s *PostgresJobStore) RegisterExecutor(jobType string, executor JobExecutor) {
	s.executors[jobType] = executor
}

// SaveJob persists a job to the database
func (s *PostgresJobStore) SaveJob(ctx context.Context, j job.Job) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		j.ID(),
		j.Type(),
		j.Payload(),
		string(j.Status()),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save job",
			"job_id", j.ID(),
			"job_type", j.Type(),
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	return nil
}

// UpdateJobStatus updates the status of a job in the database
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status job.JobStatus,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		string(status),
		errorMsg,
		time.Now().UTC(),
		jobID,
	)
	if err != nil {
		log.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Job row already gone, treat as no-op
		log.Warn("no job found with ID to update status", "job_id", jobID)
		return nil
	}

	return nil
}

// GetPendingJobs retrieves all jobs with "pending" status
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]job.Job, error) {
	return s.getJobsByStatus(ctx, job.JobStatusPending, 0)
}

// GetProcessingJobs retrieves jobs with "processing" status
func (s *PostgresJobStore) GetProcessingJobs(
	ctx context.Context,
	olderThan time.Duration,
) ([]job.Job, error) {
	return s.getJobsByStatus(ctx, job.JobStatusProcessing, olderThan)
}

// getJobsByStatus gets jobs by status with an optional age filter
func (s *PostgresJobStore) getJobsByStatus(
	ctx context.Context,
	status job.JobStatus,
	olderThan time.Duration,
) ([]job.Job, error) {
	log := logger.FromContext(ctx)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{string(status), time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM jobs
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{string(status)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query jobs by status: %w", err)
	}
	defer rows.Close()

	var jobs []job.Job

	for rows.Next() {
		var (
			id           uuid.UUID
			jobType      string
			payload      []byte
			jobStatus    string
			errorMessage sql.NullString
			createdAt    time.Time
			updatedAt    time.Time
		)

		if err := rows.Scan(&id, &jobType, &payload, &jobStatus, &errorMessage, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}

		jobs = append(jobs, &databaseJob{
			id:       id,
			jobType:  jobType,
			payload:  payload,
			status:   job.JobStatus(jobStatus),
			executor: s.executors[jobType],
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// databaseJob implements the job.Job interface for jobs loaded from the
// database. It keeps the stored row ID so status updates during recovery hit
// the original row, and delegates execution to the registered executor for
// its type.
type databaseJob struct {
	id       uuid.UUID
	jobType  string
	payload  []byte
	status   job.JobStatus
	executor JobExecutor
}

func (j *databaseJob) ID() uuid.UUID {
	return j.id
}

func (j *databaseJob) Type() string {
	return j.jobType
}

func (j *databaseJob) Payload() []byte {
	return j.payload
}

func (j *databaseJob) Status() job.JobStatus {
	return j.status
}

func (j *databaseJob) Execute(ctx context.Context) error {
	if j.executor == nil {
		return errors.New("no executor registered for job type " + j.jobType)
	}
	return j.executor(ctx, j.payload)
}
