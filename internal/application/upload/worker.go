package upload

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/storage"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
)

// 队列与并发参数
const (
	queueCapacity  = 256
	workerPoolSize = 2
)

// ErrQueueFull 处理队列已满
var ErrQueueFull = fmt.Errorf("upload processing queue is full")

// Transcriber 转写依赖（URL 形态）
type Transcriber interface {
	TranscribeURL(ctx context.Context, audioURL, mimeType string) (*transcription.Result, error)
}

// Cleaner 清洗依赖
type Cleaner interface {
	Clean(ctx context.Context, rawTranscript string) string
}

// Orchestrator 异步叉依赖
type Orchestrator interface {
	Run(ctx context.Context, env *envelope.EnvelopeV1, personaCode string, meta domainintel.Meta, cleanedTranscript string)
}

// Worker 上传任务后台处理器
// 从队列取任务并走 转写 -> 清洗 -> 异步叉 流程；
// 对任务的独占权通过 queued->processing 的 CAS 获得
type Worker struct {
	jobs         storage.UploadJobRepository
	store        ObjectStore
	transcriber  Transcriber
	cleaner      Cleaner
	orchestrator Orchestrator

	queue          chan uuid.UUID
	pool           *pool.Pool
	stuckJobMaxAge time.Duration
	logger         *slog.Logger
}

// NewWorker 创建后台处理器
func NewWorker(
	jobs storage.UploadJobRepository,
	store ObjectStore,
	transcriber Transcriber,
	cleanerService Cleaner,
	orchestrator Orchestrator,
	cfg *config.UploadConfig,
) *Worker {
	return &Worker{
		jobs:           jobs,
		store:          store,
		transcriber:    transcriber,
		cleaner:        cleanerService,
		orchestrator:   orchestrator,
		queue:          make(chan uuid.UUID, queueCapacity),
		stuckJobMaxAge: cfg.StuckJobMaxAge,
		logger:         applog.NewModuleLogger("upload", "worker"),
	}
}

// Enqueue 把任务投入处理队列
func (w *Worker) Enqueue(jobID uuid.UUID) error {
	select {
	case w.queue <- jobID:
		return nil
	default:
		w.logger.Error("Upload queue full, rejecting job",
			"job_id", jobID.String(),
		)
		return ErrQueueFull
	}
}

// Start 启动 worker 池并回收上次运行遗留的卡死任务
func (w *Worker) Start() {
	ctx := context.Background()

	if n, err := w.jobs.ReapStuck(ctx, w.stuckJobMaxAge); err != nil {
		w.logger.Error("Failed to reap stuck jobs", "error", err)
	} else if n > 0 {
		w.logger.Warn("Reaped stuck jobs", "count", n)
	}

	w.pool = pool.New().WithMaxGoroutines(workerPoolSize)
	for i := 0; i < workerPoolSize; i++ {
		w.pool.Go(func() {
			for jobID := range w.queue {
				w.processJob(context.Background(), jobID)
			}
		})
	}

	w.logger.Info("Upload worker started", "pool_size", workerPoolSize)
}

// Stop 关闭队列并等待在途任务结束
func (w *Worker) Stop() {
	close(w.queue)
	if w.pool != nil {
		w.pool.Wait()
	}
	w.logger.Info("Upload worker stopped")
}

// processJob 处理单个任务
// 步骤 2-5 的失败使任务进入 failed；异步叉内部的车道失败不影响
// 任务成败——转写和清洗产出结果即视为成功
func (w *Worker) processJob(ctx context.Context, jobID uuid.UUID) {
	logger := w.logger.With("job_id", jobID.String())

	// queued -> processing；零行更新说明任务已被其他 worker 认领
	claimed, err := w.jobs.MarkProcessing(ctx, jobID)
	if err != nil {
		logger.Error("Failed to claim job", "error", err)
		return
	}
	if !claimed {
		logger.Info("Job already claimed, skipping")
		return
	}

	j, err := w.jobs.FindByID(ctx, jobID)
	if err != nil {
		logger.Error("Failed to load claimed job", "error", err)
		w.fail(ctx, jobID, job.ErrCodeInternal, "failed to load job record")
		return
	}

	mimeType := "audio/wav"
	if j.MimeType != nil {
		mimeType = transcription.NormalizeMIMEType(*j.MimeType)
	}

	audioURL, err := w.store.PresignGet(ctx, j.FileKey)
	if err != nil {
		logger.Error("Failed to presign audio URL", "error", err)
		w.fail(ctx, jobID, job.ErrCodeStorageUnavailable, "failed to generate download URL")
		return
	}

	logger.Info("Transcribing from URL", "mime_type", mimeType)
	result, err := w.transcriber.TranscribeURL(ctx, audioURL, mimeType)
	if err != nil {
		logger.Error("Transcription failed", "error", err)
		w.fail(ctx, jobID, job.ErrCodeTranscriptionFailed, "transcription service failed")
		return
	}

	// 解码成功但 0 词：文件可能是静音、音乐或无法识别的音频
	if result.Empty() {
		logger.Warn("Empty transcript from provider",
			"duration", result.DurationSeconds,
			"channels", result.Channels,
		)
		w.fail(ctx, jobID, job.ErrCodeEmptyTranscript, fmt.Sprintf(
			"audio decoded (duration=%.1fs, channels=%d) but no words were detected",
			result.DurationSeconds, result.Channels))
		return
	}

	logger.Info("Cleaning transcript", "raw_length", len(result.Transcript))
	cleanedTranscript := w.cleaner.Clean(ctx, result.Transcript)

	env := envelope.New(j.TenantID, j.UserID, envelope.InteractionTypeTranscript,
		envelope.Content{Text: cleanedTranscript, Format: envelope.FormatDiarized},
		envelope.SourceUpload)
	env.InteractionID = j.InteractionID
	if j.TraceID != nil {
		env.TraceID = *j.TraceID
	} else {
		env.TraceID = uuid.New().String()
	}
	if j.AccountID != nil {
		env.AccountID = *j.AccountID
	}
	if j.UserName != nil {
		env.Extras["user_name"] = *j.UserName
	}
	if j.PGUserID != nil {
		env.Extras["pg_user_id"] = *j.PGUserID
	}

	meta := domainintel.Meta{
		InteractionID:        j.InteractionID,
		TenantID:             j.TenantID,
		TraceID:              env.TraceID,
		InteractionType:      envelope.InteractionTypeBatchUpload,
		AccountID:            parseAccountID(j.AccountID),
		InteractionTimestamp: env.Timestamp,
	}

	w.orchestrator.Run(ctx, env, domainintel.DefaultPersonaCode, meta, cleanedTranscript)

	summary := fmt.Sprintf("Transcribed %d chars, cleaned to %d chars",
		len(result.Transcript), len(cleanedTranscript))
	if err := w.jobs.MarkSucceeded(ctx, jobID, summary); err != nil {
		logger.Error("Failed to mark job succeeded", "error", err)
		return
	}

	logger.Info("Job completed",
		"raw_length", len(result.Transcript),
		"cleaned_length", len(cleanedTranscript),
	)
}

// fail 标记任务失败；标记本身失败时只能记日志
func (w *Worker) fail(ctx context.Context, jobID uuid.UUID, errorCode, errorMessage string) {
	if err := w.jobs.MarkFailed(ctx, jobID, errorCode, errorMessage); err != nil {
		w.logger.Error("Failed to mark job failed",
			"job_id", jobID.String(),
			"error", err,
		)
	}
}

// parseAccountID account_id 只有是合法 UUID 时才进入智能行
func parseAccountID(accountID *string) *uuid.UUID {
	if accountID == nil {
		return nil
	}
	id, err := uuid.Parse(*accountID)
	if err != nil {
		return nil
	}
	return &id
}
