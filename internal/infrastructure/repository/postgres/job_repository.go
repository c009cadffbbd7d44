package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.CollectionJob) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO collection_jobs (
	id, area, status, collected_count, saved_count, failed_count, error_message, created_at, completed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		job.ID, job.Area, string(job.Status), job.CollectedCount, job.SavedCount,
		job.FailedCount, job.Error, job.CreatedAt, nullableTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.CollectionJob) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE collection_jobs
SET status = $2, collected_count = $3, saved_count = $4, failed_count = $5, error_message = $6, completed_at = $7
WHERE id = $1
`,
		job.ID, string(job.Status), job.CollectedCount, job.SavedCount,
		job.FailedCount, job.Error, nullableTime(job.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return requireRowAffected(result, "update job", job.ID)
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.CollectionJob, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, area, status, collected_count, saved_count, failed_count, error_message, created_at, completed_at
FROM collection_jobs
WHERE id = $1
`, id)

	var job domain.CollectionJob
	var status string
	var errMessage sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.Area, &status, &job.CollectedCount, &job.SavedCount,
		&job.FailedCount, &errMessage, &job.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "job "+id, err)
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	job.Error = errMessage.String
	if completedAt.Valid {
		job.CompletedAt = completedAt.Time
	}
	return &job, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
