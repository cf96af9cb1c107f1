package handler

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/response"
)

// TextCleanRequest 文本清洗请求
type TextCleanRequest struct {
	// Text 原始文本，不允许为空或纯空白
	Text string `json:"text" binding:"required"`
	// Metadata 透传进信封 extras 的调用方元数据
	Metadata map[string]any `json:"metadata"`
	// Source 内容来源标识
	Source string `json:"source"`
}

// TextCleanResponse 文本清洗响应
type TextCleanResponse struct {
	RawText       string `json:"raw_text"`
	CleanedText   string `json:"cleaned_text"`
	InteractionID string `json:"interaction_id"`
}

// TextHandler 文本清洗处理器
type TextHandler struct {
	cleaner      Cleaner
	orchestrator Orchestrator
	logger       *slog.Logger
}

// NewTextHandler 创建文本清洗处理器
func NewTextHandler(cleaner Cleaner, orchestrator Orchestrator) *TextHandler {
	return &TextHandler{
		cleaner:      cleaner,
		orchestrator: orchestrator,
		logger:       applog.NewModuleLogger("http", "text"),
	}
}

// Clean 清洗原始文本并发布到生态
// POST /text/clean
// @Summary 清洗原始文本
// @Tags text
// @Accept json
// @Produce json
// @Param body body TextCleanRequest true "待清洗文本"
// @Success 200 {object} TextCleanResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /text/clean [post]
func (h *TextHandler) Clean(c *gin.Context) {
	rc := middleware.MustContext(c)

	var req TextCleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		h.logger.Warn("Empty text rejected",
			"interaction_id", rc.InteractionID.String(),
		)
		response.Error(c, http.StatusBadRequest, "text field cannot contain only whitespace")
		return
	}

	if req.Source == "" {
		req.Source = envelope.SourceAPI
	}

	h.logger.Info("Text cleaning started",
		"interaction_id", rc.InteractionID.String(),
		"tenant_id", rc.TenantID.String(),
		"text_length", len(req.Text),
	)

	cleanedText := h.cleaner.Clean(c.Request.Context(), req.Text)

	env := envelope.New(rc.TenantID, rc.UserID, envelope.InteractionTypeNote,
		envelope.Content{Text: cleanedText, Format: envelope.FormatPlain},
		req.Source)
	env.InteractionID = rc.InteractionID
	env.TraceID = rc.TraceID
	env.AccountID = rc.AccountID
	for k, v := range req.Metadata {
		env.Extras[k] = v
	}
	// user_name 只在存在时进入 extras，绝不写空值
	if rc.UserName != "" {
		env.Extras["user_name"] = rc.UserName
	}

	meta := domainintel.Meta{
		InteractionID:        rc.InteractionID,
		TenantID:             rc.TenantID,
		TraceID:              rc.TraceID,
		InteractionType:      envelope.InteractionTypeNote,
		AccountID:            parseAccountID(rc.AccountID),
		InteractionTimestamp: env.Timestamp,
	}

	h.orchestrator.Run(c.Request.Context(), env, domainintel.DefaultPersonaCode, meta, cleanedText)

	h.logger.Info("Text cleaning request complete",
		"interaction_id", rc.InteractionID.String(),
	)

	response.Success(c, TextCleanResponse{
		RawText:       req.Text,
		CleanedText:   cleanedText,
		InteractionID: rc.InteractionID.String(),
	})
}
