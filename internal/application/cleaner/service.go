package cleaner

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/transcript"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// chunkTimeout 单块 LLM 调用超时
const chunkTimeout = 60 * time.Second

// StructuredLLM 结构化输出 LLM 的最小接口
type StructuredLLM interface {
	CreateStructured(ctx context.Context, system, user, schemaName string, temperature float32, out any) error
	Model() string
}

// CleanedChunk 单块清洗的结构化输出
type CleanedChunk struct {
	// CleanedText 去除填充词、修正语法、保留说话人标签的文本
	CleanedText string `json:"cleaned_text"`
}

// MeetingOutput 会话收尾清洗的结构化输出
type MeetingOutput struct {
	Summary           string   `json:"summary"`
	ActionItems       []string `json:"action_items"`
	CleanedTranscript string   `json:"cleaned_transcript"`
}

// Service 转写清洗服务
// 按说话人轮次切块后逐块清洗；单块失败回退原文继续，整体绝不中断
type Service struct {
	llm          StructuredLLM
	maxTurnWords int
	logger       *slog.Logger
}

// NewService 创建清洗服务
func NewService(llm StructuredLLM) *Service {
	return &Service{
		llm:          llm,
		maxTurnWords: transcript.DefaultMaxTurnWords,
		logger:       applog.NewModuleLogger("cleaner", "service"),
	}
}

// Clean 清洗一份带说话人标注的转写
// 返回值永远可用：整体失败时退化为原文
func (s *Service) Clean(ctx context.Context, rawTranscript string) string {
	lines := strings.Split(strings.TrimSpace(rawTranscript), "\n")
	chunks := transcript.SplitLongTurns(lines, s.maxTurnWords)

	if len(chunks) == 0 {
		return rawTranscript
	}

	s.logger.Info("Cleaning transcript",
		"chunks", len(chunks),
		"raw_length", len(rawTranscript),
	)

	cleaned := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		cleaned = append(cleaned, s.cleanChunk(ctx, chunk, i, len(chunks)))
	}

	return strings.Join(cleaned, "\n")
}

// cleanChunk 清洗单块；失败或超时回退原文
func (s *Service) cleanChunk(ctx context.Context, chunk string, index, total int) string {
	ctx, cancel := context.WithTimeout(ctx, chunkTimeout)
	defer cancel()

	var out CleanedChunk
	err := s.llm.CreateStructured(ctx, chunkSystemPrompt, chunk, "cleaned_chunk", 0.5, &out)
	if err != nil || out.CleanedText == "" {
		s.logger.Warn("Chunk cleaning failed, keeping original",
			"chunk", index+1,
			"total", total,
			"error", err,
		)
		return chunk
	}
	return out.CleanedText
}

// CleanMeeting 实时会话收尾清洗：摘要 + 行动项 + 清洗后全文
// 失败时返回原文与错误说明，绝不返回 nil
func (s *Service) CleanMeeting(ctx context.Context, rawTranscript string) *MeetingOutput {
	if strings.TrimSpace(rawTranscript) == "" {
		return &MeetingOutput{
			Summary:           "No content to summarize.",
			ActionItems:       []string{},
			CleanedTranscript: "",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, chunkTimeout)
	defer cancel()

	var out MeetingOutput
	user := "Please clean and structure this transcript:\n\n" + rawTranscript
	if err := s.llm.CreateStructured(ctx, meetingSystemPrompt, user, "meeting_output", 0.3, &out); err != nil {
		s.logger.Error("Meeting cleaning failed, returning raw transcript",
			"raw_length", len(rawTranscript),
			"error", err,
		)
		return &MeetingOutput{
			Summary:           "Error processing transcript.",
			ActionItems:       []string{},
			CleanedTranscript: rawTranscript,
		}
	}

	if out.ActionItems == nil {
		out.ActionItems = []string{}
	}
	return &out
}
