package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.AnalysisJob) error {
	query := `
		INSERT INTO analysis_jobs (
			id, user_id, video_key, report_key, status, frame_count,
			object_count, file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.ReportKey, string(job.Status),
		job.FrameCount, job.ObjectCount, job.FileSize, job.VideoDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.AnalysisJob) error {
	query := `
		UPDATE analysis_jobs SET
			status=$2, report_key=$3, frame_count=$4, object_count=$5,
			video_duration=$6, attempt=$7, error_message=$8, updated_at=$9,
			completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ReportKey, job.FrameCount,
		job.ObjectCount, job.VideoDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AnalysisJob, error) {
	query := `
		SELECT id, user_id, video_key, report_key, status, frame_count,
			object_count, file_size, video_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM analysis_jobs WHERE id=$1`

	job := &entity.AnalysisJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.ReportKey, &status,
		&job.FrameCount, &job.ObjectCount, &job.FileSize, &job.VideoDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
