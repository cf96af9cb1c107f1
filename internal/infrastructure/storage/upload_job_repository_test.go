package storage

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
)

func newMockRepo(t *testing.T) (UploadJobRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUploadJobRepository(db), mock
}

// TestMarkProcessingCASGuard queued -> processing 的更新必须带前置状态条件
func TestMarkProcessingCASGuard(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`UPDATE upload_jobs\s+SET status = 'processing', started_at = \$2, updated_at = \$2\s+WHERE id = \$1 AND status = 'queued'`).
		WithArgs(jobID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.MarkProcessing(context.Background(), jobID)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMarkProcessingAlreadyClaimed 零行更新表示任务已被其他 worker 认领
func TestMarkProcessingAlreadyClaimed(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`WHERE id = \$1 AND status = 'queued'`).
		WithArgs(jobID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.MarkProcessing(context.Background(), jobID)
	require.NoError(t, err)
	assert.False(t, claimed, "零行 CAS 不应视为认领成功")
}

// TestMarkSucceededRequiresProcessing succeeded 只能从 processing 进入
func TestMarkSucceededRequiresProcessing(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`UPDATE upload_jobs\s+SET status = 'succeeded', result_summary = \$2, completed_at = \$3, updated_at = \$3\s+WHERE id = \$1 AND status = 'processing'`).
		WithArgs(jobID, "done", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSucceeded(context.Background(), jobID, "done"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMarkSucceededFromTerminalConflicts 终态任务不再迁移：零行 -> ErrConflict
func TestMarkSucceededFromTerminalConflicts(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`WHERE id = \$1 AND status = 'processing'`).
		WithArgs(jobID, "done", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSucceeded(context.Background(), jobID, "done")
	assert.ErrorIs(t, err, job.ErrConflict)
}

// TestMarkFailedGuard failed 只能从 queued 或 processing 进入
func TestMarkFailedGuard(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`UPDATE upload_jobs\s+SET status = 'failed', error_code = \$2, error_message = \$3, completed_at = \$4, updated_at = \$4\s+WHERE id = \$1 AND status IN \('queued', 'processing'\)`).
		WithArgs(jobID, job.ErrCodeTranscriptionFailed, "provider down", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), jobID, job.ErrCodeTranscriptionFailed, "provider down"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMarkFailedFromTerminalConflicts 终态任务标记失败 -> ErrConflict
func TestMarkFailedFromTerminalConflicts(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`WHERE id = \$1 AND status IN \('queued', 'processing'\)`).
		WithArgs(jobID, job.ErrCodeInternal, "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkFailed(context.Background(), jobID, job.ErrCodeInternal, "boom")
	assert.ErrorIs(t, err, job.ErrConflict)
}

// TestMarkFailedTruncatesMessage 错误信息入库前截断到 500 字符
func TestMarkFailedTruncatesMessage(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()
	long := strings.Repeat("x", 800)

	mock.ExpectExec(`WHERE id = \$1 AND status IN \('queued', 'processing'\)`).
		WithArgs(jobID, job.ErrCodeInternal, strings.Repeat("x", 500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), jobID, job.ErrCodeInternal, long))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestFindByIDNotFound 无行 -> job.ErrNotFound
func TestFindByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .+ FROM upload_jobs WHERE id = \$1`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), jobID)
	assert.ErrorIs(t, err, job.ErrNotFound)
}

// TestFindByFileKeyTenantScoped 查询必须同时限定租户与文件键
func TestFindByFileKeyTenantScoped(t *testing.T) {
	repo, mock := newMockRepo(t)
	tenantID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM upload_jobs WHERE tenant_id = $1 AND file_key = $2`)).
		WithArgs(tenantID, "tenant/x/uploads/y/a.mp3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByFileKey(context.Background(), tenantID, "tenant/x/uploads/y/a.mp3")
	assert.ErrorIs(t, err, job.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReapStuckGuard 只回收 processing 且 started_at 早于截止点的任务
func TestReapStuckGuard(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`(?s)UPDATE upload_jobs\s+SET status = 'failed',.+WHERE status = 'processing' AND started_at < \$3`).
		WithArgs(job.ErrCodeProcessingTimeout, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ReapStuck(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
