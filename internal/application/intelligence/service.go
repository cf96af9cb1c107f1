package intelligence

import (
	"context"
	"time"

	"log/slog"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/storage"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/tokens"
)

// 抽取超时：短转写 30s，长转写 60s
const (
	shortExtractTimeout = 30 * time.Second
	longExtractTimeout  = 60 * time.Second

	// longTranscriptTokens 超过该 token 数视为长转写
	longTranscriptTokens = 8000

	// extractMaxRetries 结构化输出校验失败的最大重试次数
	extractMaxRetries = 2
)

// systemPrompt GTM 视角的抽取提示词
const systemPrompt = `You are an expert Go-To-Market (GTM) analyst reviewing customer interaction transcripts.

Your role is to extract actionable intelligence that helps GTM teams:
- Identify sales opportunities and deal risks
- Track customer commitments and action items
- Capture competitive intelligence and market signals
- Surface product feedback for roadmap prioritization

**Extraction Guidelines:**

1. **Summaries**: Write from a GTM leader's perspective, focusing on business impact
   - title: 5-10 word title capturing the essence
   - headline: 1-2 sentence headline for quick scanning
   - brief: 2-3 paragraph executive summary
   - detailed: Comprehensive summary with all key points
   - spotlight: The single most important takeaway

2. **Action Items**: Capture commitments, follow-ups, and next steps with owners when mentioned

3. **Decisions**: Document any agreements, approvals, or strategic choices made

4. **Risks**: Identify deal risks, relationship concerns, or competitive threats with severity levels

5. **Key Takeaways**: Highlight insights valuable for account strategy

6. **Product Feedback**: Note feature requests, pain points, bugs, or UX issues mentioned

7. **Market Intelligence**: Capture competitor mentions, market trends, or industry themes

Be thorough but precise. Only extract information explicitly present in the transcript.
Do not invent or assume information not stated.`

// StructuredLLM 带重试的结构化输出 LLM 接口
type StructuredLLM interface {
	CreateStructuredWithRetries(ctx context.Context, system, user, schemaName string, temperature float32, maxRetries int, out any) error
	Model() string
}

// Service 智能抽取与落库服务
// 异步叉的第二条车道：与事件发布并行，任何失败都被吸收为 nil
type Service struct {
	llm    StructuredLLM
	repo   storage.IntelligenceRepository
	logger *slog.Logger
}

// NewService 创建智能抽取服务
func NewService(llm StructuredLLM, repo storage.IntelligenceRepository) *Service {
	return &Service{
		llm:    llm,
		repo:   repo,
		logger: applog.NewModuleLogger("intelligence", "service"),
	}
}

// ProcessTranscript 抽取并落库
// 返回抽取结果，任何供应商或数据库失败都返回 nil，绝不抛错
func (s *Service) ProcessTranscript(ctx context.Context, cleanedTranscript string, personaCode string, meta intelligence.Meta) *intelligence.Analysis {
	if personaCode == "" {
		personaCode = intelligence.DefaultPersonaCode
	}
	meta.Source = "openai:" + s.llm.Model()

	s.logger.Info("Processing transcript",
		"interaction_id", meta.InteractionID.String(),
		"tenant_id", meta.TenantID.String(),
		"trace_id", meta.TraceID,
		"transcript_length", len(cleanedTranscript),
	)

	analysis := s.extract(ctx, cleanedTranscript)
	if analysis == nil {
		s.logger.Warn("Extraction returned nothing",
			"interaction_id", meta.InteractionID.String(),
		)
		return nil
	}

	if err := s.repo.PersistAnalysis(ctx, analysis, personaCode, meta); err != nil {
		// 回滚已在仓储内完成；这里只记录，不再向上抛
		s.logger.Error("Intelligence persistence failed",
			"interaction_id", meta.InteractionID.String(),
			"tenant_id", meta.TenantID.String(),
			"error", err,
		)
		return nil
	}

	s.logger.Info("Intelligence processing complete",
		"interaction_id", meta.InteractionID.String(),
		"summaries", len(intelligence.SummaryLevels()),
		"action_items", len(analysis.ActionItems),
		"decisions", len(analysis.Decisions),
		"risks", len(analysis.Risks),
	)
	return analysis
}

// extract 结构化抽取；超时或供应商错误返回 nil
func (s *Service) extract(ctx context.Context, cleanedTranscript string) *intelligence.Analysis {
	ctx, cancel := context.WithTimeout(ctx, s.extractTimeout(cleanedTranscript))
	defer cancel()

	var analysis intelligence.Analysis
	err := s.llm.CreateStructuredWithRetries(ctx, systemPrompt,
		"Analyze this transcript:\n\n"+cleanedTranscript,
		"interaction_analysis", 0, extractMaxRetries, &analysis)
	if err != nil {
		s.logger.Error("Intelligence extraction failed",
			"transcript_length", len(cleanedTranscript),
			"error", err,
		)
		return nil
	}
	return &analysis
}

// extractTimeout 按转写 token 数选择超时
// 估算器不可用时退化为按字节长度判断
func (s *Service) extractTimeout(text string) time.Duration {
	estimator, err := tokens.GetEstimator()
	if err != nil {
		if len(text) > longTranscriptTokens*4 {
			return longExtractTimeout
		}
		return shortExtractTimeout
	}
	if estimator.CountTokens(text) > longTranscriptTokens {
		return longExtractTimeout
	}
	return shortExtractTimeout
}
