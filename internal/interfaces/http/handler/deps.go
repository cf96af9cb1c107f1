package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/upload"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
)

// Cleaner 清洗依赖
type Cleaner interface {
	Clean(ctx context.Context, rawTranscript string) string
}

// Transcriber 转写依赖（字节形态，同步批量端点用）
type Transcriber interface {
	TranscribeBytes(ctx context.Context, audio []byte, mimeType string) (*transcription.Result, error)
}

// Orchestrator 异步叉依赖
type Orchestrator interface {
	Run(ctx context.Context, env *envelope.EnvelopeV1, personaCode string, meta domainintel.Meta, cleanedTranscript string)
}

// UploadService 上传任务子系统依赖
type UploadService interface {
	Init(ctx context.Context, rc *identity.RequestContext, req upload.InitRequest) (*upload.InitResult, error)
	Complete(ctx context.Context, rc *identity.RequestContext, req upload.CompleteRequest) (*upload.CompleteResult, error)
	Status(ctx context.Context, rc *identity.RequestContext, jobID uuid.UUID) (*job.UploadJob, error)
}

// parseAccountID account_id 只有是合法 UUID 时进入智能行
func parseAccountID(accountID string) *uuid.UUID {
	if accountID == "" {
		return nil
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil
	}
	return &id
}
