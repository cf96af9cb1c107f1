package handler

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/upload"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/job"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/objectstore"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/response"
)

// UploadInitRequest /upload/init 请求体
type UploadInitRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	FileSize *int64 `json:"file_size"`
}

// UploadInitResponse /upload/init 响应体
type UploadInitResponse struct {
	UploadURL string    `json:"upload_url"`
	FileKey   string    `json:"file_key"`
	JobID     string    `json:"job_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadCompleteRequest /upload/complete 请求体
type UploadCompleteRequest struct {
	FileKey  string `json:"file_key" binding:"required"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize *int64 `json:"file_size"`
}

// UploadCompleteResponse /upload/complete 响应体
type UploadCompleteResponse struct {
	JobID         string `json:"job_id"`
	InteractionID string `json:"interaction_id"`
	Status        string `json:"status"`
}

// JobStatusResponse /upload/status 响应体
type JobStatusResponse struct {
	JobID         string     `json:"job_id"`
	Status        string     `json:"status"`
	InteractionID string     `json:"interaction_id"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ResultSummary *string    `json:"result_summary,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	ErrorCode     *string    `json:"error_code,omitempty"`
}

// UploadHandler 预签名上传工作流处理器
// init -> 客户端 PUT -> complete -> worker 处理 -> status 轮询
type UploadHandler struct {
	service UploadService
	logger  *slog.Logger
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(service UploadService) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  applog.NewModuleLogger("http", "upload"),
	}
}

// Init 初始化上传并获取预签名 URL
// POST /upload/init
// @Summary 初始化预签名上传
// @Tags upload
// @Accept json
// @Produce json
// @Param body body UploadInitRequest true "上传元信息"
// @Success 200 {object} UploadInitResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /upload/init [post]
func (h *UploadHandler) Init(c *gin.Context) {
	rc := middleware.MustContext(c)

	var req UploadInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Init(c.Request.Context(), rc, upload.InitRequest{
		Filename: req.Filename,
		MimeType: req.MimeType,
		FileSize: req.FileSize,
	})
	if err != nil {
		if errors.Is(err, objectstore.ErrInvalidFilename) {
			response.Error(c, http.StatusBadRequest, "filename must not contain path separators")
			return
		}
		h.logger.Error("Upload init failed",
			"tenant_id", rc.TenantID.String(),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "failed to initialize upload")
		return
	}

	response.Success(c, UploadInitResponse{
		UploadURL: result.UploadURL,
		FileKey:   result.FileKey,
		JobID:     result.JobID.String(),
		ExpiresAt: result.ExpiresAt,
	})
}

// Complete 直传完成后触发后台处理
// POST /upload/complete
// @Summary 完成上传并入队处理
// @Tags upload
// @Accept json
// @Produce json
// @Param body body UploadCompleteRequest true "文件键"
// @Success 200 {object} UploadCompleteResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /upload/complete [post]
func (h *UploadHandler) Complete(c *gin.Context) {
	rc := middleware.MustContext(c)

	var req UploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "file_key is required")
		return
	}

	result, err := h.service.Complete(c.Request.Context(), rc, upload.CompleteRequest{
		FileKey:  req.FileKey,
		FileName: req.FileName,
		MimeType: req.MimeType,
		FileSize: req.FileSize,
	})
	if err != nil {
		switch {
		case errors.Is(err, job.ErrNotFound):
			response.Error(c, http.StatusNotFound, "job not found")
		case errors.Is(err, job.ErrConflict):
			response.Error(c, http.StatusConflict, "job is not in a state that allows processing")
		default:
			h.logger.Error("Upload complete failed",
				"tenant_id", rc.TenantID.String(),
				"error", err,
			)
			response.Error(c, http.StatusInternalServerError, "failed to trigger processing")
		}
		return
	}

	response.Success(c, UploadCompleteResponse{
		JobID:         result.JobID.String(),
		InteractionID: result.InteractionID.String(),
		Status:        string(result.Status),
	})
}

// Status 查询任务状态
// GET /upload/status/:job_id
// @Summary 查询上传任务状态
// @Tags upload
// @Produce json
// @Param job_id path string true "任务 ID"
// @Success 200 {object} JobStatusResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /upload/status/{job_id} [get]
func (h *UploadHandler) Status(c *gin.Context) {
	rc := middleware.MustContext(c)

	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid job ID format")
		return
	}

	j, err := h.service.Status(c.Request.Context(), rc, jobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("Job status lookup failed",
			"job_id", jobID.String(),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "failed to load job status")
		return
	}

	response.Success(c, JobStatusResponse{
		JobID:         j.ID.String(),
		Status:        string(j.Status),
		InteractionID: j.InteractionID.String(),
		CreatedAt:     j.CreatedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		ResultSummary: j.ResultSummary,
		ErrorMessage:  j.ErrorMessage,
		ErrorCode:     j.ErrorCode,
	})
}
