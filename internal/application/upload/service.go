package upload

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/objectstore"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/storage"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
)

// ObjectStore 对象存储依赖
type ObjectStore interface {
	PresignPut(ctx context.Context, fileKey, contentType string) (string, time.Time, error)
	PresignGet(ctx context.Context, fileKey string) (string, error)
	Exists(ctx context.Context, fileKey string) (bool, error)
}

// InitRequest /upload/init 请求参数
type InitRequest struct {
	Filename string
	MimeType string
	FileSize *int64
}

// InitResult /upload/init 响应
type InitResult struct {
	UploadURL string
	FileKey   string
	JobID     uuid.UUID
	ExpiresAt time.Time
}

// CompleteRequest /upload/complete 请求参数
type CompleteRequest struct {
	FileKey  string
	FileName string
	MimeType string
	FileSize *int64
}

// CompleteResult /upload/complete 响应
type CompleteResult struct {
	JobID         uuid.UUID
	InteractionID uuid.UUID
	Status        job.Status
}

// Service 上传任务子系统
// 三端点状态机 + 后台 worker；任务记录持久化，(tenant_id, file_key) 唯一
type Service struct {
	jobs   storage.UploadJobRepository
	store  ObjectStore
	worker *Worker
	logger *slog.Logger
}

// NewService 创建上传任务服务
func NewService(jobs storage.UploadJobRepository, store ObjectStore, worker *Worker) *Service {
	return &Service{
		jobs:   jobs,
		store:  store,
		worker: worker,
		logger: applog.NewModuleLogger("upload", "service"),
	}
}

// Init 初始化上传：建任务记录并签发限时 PUT URL
func (s *Service) Init(ctx context.Context, rc *identity.RequestContext, req InitRequest) (*InitResult, error) {
	jobID := uuid.New()

	mimeType := transcription.NormalizeMIMEType(req.MimeType)
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	fileKey, err := objectstore.GenerateFileKey(rc.TenantID, jobID, req.Filename)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Upload init",
		"job_id", jobID.String(),
		"tenant_id", rc.TenantID.String(),
		"mime_type", mimeType,
	)

	j := &job.UploadJob{
		ID:            jobID,
		TenantID:      rc.TenantID,
		UserID:        rc.UserID,
		PGUserID:      optional(rc.PGUserID),
		UserName:      optional(rc.UserName),
		JobType:       job.TypeAudioTranscription,
		Status:        job.StatusQueued,
		FileKey:       fileKey,
		FileName:      optional(req.Filename),
		MimeType:      optional(mimeType),
		FileSize:      req.FileSize,
		InteractionID: rc.InteractionID,
		TraceID:       optional(rc.TraceID),
		AccountID:     optional(rc.AccountID),
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	uploadURL, expiresAt, err := s.store.PresignPut(ctx, fileKey, mimeType)
	if err != nil {
		// 任务已建但拿不到上传 URL：标记失败，避免留下永远 queued 的孤儿
		_ = s.jobs.MarkFailed(ctx, jobID, job.ErrCodeStorageUnavailable, "failed to generate upload URL")
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &InitResult{
		UploadURL: uploadURL,
		FileKey:   fileKey,
		JobID:     jobID,
		ExpiresAt: expiresAt,
	}, nil
}

// Complete 客户端直传完成后触发后台处理
// 跨租户（或不存在的）file_key 一律返回 job.ErrNotFound，不泄露存在性；
// 非 queued 状态返回 job.ErrConflict
func (s *Service) Complete(ctx context.Context, rc *identity.RequestContext, req CompleteRequest) (*CompleteResult, error) {
	if !objectstore.KeyBelongsToTenant(req.FileKey, rc.TenantID) {
		s.logger.Warn("Cross-tenant upload access attempt",
			"tenant_id", rc.TenantID.String(),
		)
		return nil, job.ErrNotFound
	}

	j, err := s.jobs.FindByFileKey(ctx, rc.TenantID, req.FileKey)
	if err != nil {
		return nil, err
	}

	if j.Status != job.StatusQueued {
		return nil, job.ErrConflict
	}

	exists, err := s.store.Exists(ctx, req.FileKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify uploaded object: %w", err)
	}
	if !exists {
		return nil, job.ErrNotFound
	}

	if err := s.worker.Enqueue(j.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Processing triggered",
		"job_id", j.ID.String(),
		"tenant_id", rc.TenantID.String(),
	)

	return &CompleteResult{
		JobID:         j.ID,
		InteractionID: j.InteractionID,
		Status:        job.StatusQueued,
	}, nil
}

// Status 查询任务状态；租户隔离与 Complete 一致
func (s *Service) Status(ctx context.Context, rc *identity.RequestContext, jobID uuid.UUID) (*job.UploadJob, error) {
	j, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if j.TenantID != rc.TenantID {
		s.logger.Warn("Cross-tenant job status attempt",
			"job_id", jobID.String(),
			"request_tenant", rc.TenantID.String(),
		)
		return nil, job.ErrNotFound
	}

	return j, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
