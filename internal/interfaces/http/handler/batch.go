package handler

import (
	"io"
	"net/http"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/response"
)

// BatchProcessResponse 批量音频处理响应
type BatchProcessResponse struct {
	RawTranscript     string `json:"raw_transcript"`
	CleanedTranscript string `json:"cleaned_transcript"`
	InteractionID     string `json:"interaction_id"`
}

// BatchHandler 同步音频上传处理器
type BatchHandler struct {
	transcriber  Transcriber
	cleaner      Cleaner
	orchestrator Orchestrator
	maxFileSize  int64
	logger       *slog.Logger
}

// NewBatchHandler 创建批量处理器
func NewBatchHandler(transcriber Transcriber, cleaner Cleaner, orchestrator Orchestrator, cfg *config.UploadConfig) *BatchHandler {
	return &BatchHandler{
		transcriber:  transcriber,
		cleaner:      cleaner,
		orchestrator: orchestrator,
		maxFileSize:  cfg.MaxFileSize,
		logger:       applog.NewModuleLogger("http", "batch"),
	}
}

// Process 同步处理上传的音频：转写 -> 清洗 -> 异步叉
// POST /batch/process
// @Summary 同步处理音频文件
// @Tags batch
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "音频文件"
// @Success 200 {object} BatchProcessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /batch/process [post]
func (h *BatchHandler) Process(c *gin.Context) {
	rc := middleware.MustContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file field is required")
		return
	}
	if fileHeader.Filename == "" {
		response.Error(c, http.StatusBadRequest, "no filename provided")
		return
	}

	// 格式与大小都在读入全部字节之前校验
	ext := extension(fileHeader.Filename)
	mimeType, ok := transcription.MIMETypeForExtension(ext)
	if !ok {
		h.logger.Warn("Invalid file format",
			"interaction_id", rc.InteractionID.String(),
			"extension", ext,
		)
		response.Error(c, http.StatusBadRequest,
			"invalid file format, allowed formats: "+strings.Join(transcription.SupportedExtensions(), ", "))
		return
	}

	if fileHeader.Size > h.maxFileSize {
		h.logger.Warn("File too large",
			"interaction_id", rc.InteractionID.String(),
			"size", fileHeader.Size,
			"max", h.maxFileSize,
		)
		response.Error(c, http.StatusBadRequest, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer func() { _ = file.Close() }()

	audioBytes, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if int64(len(audioBytes)) > h.maxFileSize {
		response.Error(c, http.StatusBadRequest, "file too large")
		return
	}

	h.logger.Info("Batch processing started",
		"interaction_id", rc.InteractionID.String(),
		"tenant_id", rc.TenantID.String(),
		"size", len(audioBytes),
		"extension", ext,
	)

	result, err := h.transcriber.TranscribeBytes(c.Request.Context(), audioBytes, mimeType)
	if err != nil {
		h.logger.Error("Transcription failed",
			"interaction_id", rc.InteractionID.String(),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "transcription service failed, please try again")
		return
	}

	cleanedTranscript := h.cleaner.Clean(c.Request.Context(), result.Transcript)

	// 信封上的交互类型是 transcript；智能行记录 batch_upload
	env := envelope.New(rc.TenantID, rc.UserID, envelope.InteractionTypeTranscript,
		envelope.Content{Text: cleanedTranscript, Format: envelope.FormatDiarized},
		envelope.SourceUpload)
	env.InteractionID = rc.InteractionID
	env.TraceID = rc.TraceID
	env.AccountID = rc.AccountID
	if rc.UserName != "" {
		env.Extras["user_name"] = rc.UserName
	}

	meta := domainintel.Meta{
		InteractionID:        rc.InteractionID,
		TenantID:             rc.TenantID,
		TraceID:              rc.TraceID,
		InteractionType:      envelope.InteractionTypeBatchUpload,
		AccountID:            parseAccountID(rc.AccountID),
		InteractionTimestamp: env.Timestamp,
	}

	h.orchestrator.Run(c.Request.Context(), env, domainintel.DefaultPersonaCode, meta, cleanedTranscript)

	h.logger.Info("Batch processing complete",
		"interaction_id", rc.InteractionID.String(),
		"raw_length", len(result.Transcript),
		"cleaned_length", len(cleanedTranscript),
	)

	response.Success(c, BatchProcessResponse{
		RawTranscript:     result.Transcript,
		CleanedTranscript: cleanedTranscript,
		InteractionID:     rc.InteractionID.String(),
	})
}

// extension 取文件扩展名（不含点，小写）
func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
