package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status 任务状态
// 生命周期：queued -> processing -> succeeded | failed
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal 是否为终态；终态任务不再发生任何迁移
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Type 任务类型
type Type string

const (
	TypeAudioTranscription Type = "audio_transcription"
	TypeTextProcessing     Type = "text_processing"
)

// 失败原因错误码
const (
	ErrCodeTranscriptionFailed = "TRANSCRIPTION_FAILED"
	ErrCodeCleanerFailed       = "CLEANER_FAILED"
	ErrCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	ErrCodeEmptyTranscript     = "EMPTY_TRANSCRIPT"
	ErrCodeProcessingTimeout   = "PROCESSING_TIMEOUT"
	ErrCodeInternal            = "INTERNAL"
)

var (
	// ErrNotFound 任务不存在（或不属于请求方租户，二者对外不可区分）
	ErrNotFound = errors.New("upload job not found")

	// ErrConflict 任务状态不允许请求的迁移
	ErrConflict = errors.New("upload job is not in a state that allows this transition")
)

// UploadJob 异步上传任务的持久化记录
// (tenant_id, file_key) 唯一；创建后状态字段只由 worker 迁移
type UploadJob struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	UserID   string
	PGUserID *string
	UserName *string

	JobType Type
	Status  Status

	FileKey  string
	FileName *string
	MimeType *string
	FileSize *int64

	InteractionID uuid.UUID
	TraceID       *string
	AccountID     *string

	ErrorMessage  *string
	ErrorCode     *string
	ResultSummary *string
	MetadataJSON  *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}
