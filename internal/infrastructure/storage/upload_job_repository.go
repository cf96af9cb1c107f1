package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
)

// UploadJobRepository 上传任务仓储接口
// 状态迁移均为带前置状态条件的原子更新（乐观 CAS）：
// 同一任务至多一个 worker 能观察到 processing
type UploadJobRepository interface {
	Create(ctx context.Context, j *job.UploadJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*job.UploadJob, error)
	FindByFileKey(ctx context.Context, tenantID uuid.UUID, fileKey string) (*job.UploadJob, error)

	// MarkProcessing queued -> processing；返回 false 表示任务已被他人认领
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkSucceeded processing -> succeeded
	MarkSucceeded(ctx context.Context, id uuid.UUID, resultSummary string) error
	// MarkFailed queued|processing -> failed
	MarkFailed(ctx context.Context, id uuid.UUID, errorCode, errorMessage string) error

	// ReapStuck 回收卡在 processing 超时的任务（崩溃恢复）
	ReapStuck(ctx context.Context, maxAge time.Duration) (int64, error)
}

// uploadJobRepository Postgres 仓储实现
type uploadJobRepository struct {
	db *sql.DB
}

// NewUploadJobRepository 创建上传任务仓储实例
func NewUploadJobRepository(db *sql.DB) UploadJobRepository {
	return &uploadJobRepository{db: db}
}

const uploadJobColumns = `id, tenant_id, user_id, pg_user_id, user_name, job_type, status,
	file_key, file_name, mime_type, file_size, interaction_id, trace_id, account_id,
	error_message, error_code, result_summary, metadata_json,
	created_at, updated_at, started_at, completed_at`

// Create 插入任务记录，初始状态 queued
func (r *uploadJobRepository) Create(ctx context.Context, j *job.UploadJob) error {
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now

	insertSQL := `
	INSERT INTO upload_jobs (
		id, tenant_id, user_id, pg_user_id, user_name, job_type, status,
		file_key, file_name, mime_type, file_size, interaction_id, trace_id, account_id,
		metadata_json, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.ExecContext(ctx, insertSQL,
		j.ID, j.TenantID, j.UserID, j.PGUserID, j.UserName, j.JobType, j.Status,
		j.FileKey, j.FileName, j.MimeType, j.FileSize, j.InteractionID, j.TraceID, j.AccountID,
		j.MetadataJSON, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload job: %w", err)
	}
	return nil
}

// FindByID 按主键查找
func (r *uploadJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.UploadJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+uploadJobColumns+` FROM upload_jobs WHERE id = $1`, id)
	return scanUploadJob(row)
}

// FindByFileKey 按租户与文件键查找（(tenant_id, file_key) 唯一）
func (r *uploadJobRepository) FindByFileKey(ctx context.Context, tenantID uuid.UUID, fileKey string) (*job.UploadJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+uploadJobColumns+` FROM upload_jobs WHERE tenant_id = $1 AND file_key = $2`,
		tenantID, fileKey)
	return scanUploadJob(row)
}

// MarkProcessing queued -> processing，首次进入时写 started_at
func (r *uploadJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs
		SET status = 'processing', started_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'queued'`,
		id, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark job processing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// MarkSucceeded processing -> succeeded（终态）
func (r *uploadJobRepository) MarkSucceeded(ctx context.Context, id uuid.UUID, resultSummary string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs
		SET status = 'succeeded', result_summary = $2, completed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'processing'`,
		id, resultSummary, now)
	if err != nil {
		return fmt.Errorf("failed to mark job succeeded: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return job.ErrConflict
	}
	return nil
}

// MarkFailed queued|processing -> failed（终态）
func (r *uploadJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorCode, errorMessage string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs
		SET status = 'failed', error_code = $2, error_message = $3, completed_at = $4, updated_at = $4
		WHERE id = $1 AND status IN ('queued', 'processing')`,
		id, errorCode, truncate(errorMessage, 500), now)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return job.ErrConflict
	}
	return nil
}

// ReapStuck 把 processing 超过 maxAge 的任务标记为 failed
func (r *uploadJobRepository) ReapStuck(ctx context.Context, maxAge time.Duration) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-maxAge)
	res, err := r.db.ExecContext(ctx, `
		UPDATE upload_jobs
		SET status = 'failed',
		    error_code = $1,
		    error_message = 'Job timed out (server restart or crash)',
		    completed_at = $2, updated_at = $2
		WHERE status = 'processing' AND started_at < $3`,
		job.ErrCodeProcessingTimeout, now, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reap stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// scanUploadJob 扫描单行；无行时返回 job.ErrNotFound
func scanUploadJob(row *sql.Row) (*job.UploadJob, error) {
	var j job.UploadJob
	err := row.Scan(
		&j.ID, &j.TenantID, &j.UserID, &j.PGUserID, &j.UserName, &j.JobType, &j.Status,
		&j.FileKey, &j.FileName, &j.MimeType, &j.FileSize, &j.InteractionID, &j.TraceID, &j.AccountID,
		&j.ErrorMessage, &j.ErrorCode, &j.ResultSummary, &j.MetadataJSON,
		&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, job.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload job: %w", err)
	}
	return &j, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
