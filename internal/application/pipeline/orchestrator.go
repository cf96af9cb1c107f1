package pipeline

import (
	"context"

	"log/slog"

	"github.com/sourcegraph/conc"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/eventstream"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// Publisher 发布车道依赖
type Publisher interface {
	Publish(ctx context.Context, env *envelope.EnvelopeV1) eventstream.PublishResult
}

// Intelligence 智能车道依赖
type Intelligence interface {
	ProcessTranscript(ctx context.Context, cleanedTranscript string, personaCode string, meta domainintel.Meta) *domainintel.Analysis
}

// Orchestrator 异步叉编排器
// 清洗完成后并发跑两条车道：发布（P）与智能抽取（I）。
// 两条车道只共享只读的请求上下文；任一车道失败只记日志，
// 调用方的响应完全由清洗输出构成
type Orchestrator struct {
	publisher    Publisher
	intelligence Intelligence
	logger       *slog.Logger
}

// NewOrchestrator 创建编排器
func NewOrchestrator(publisher Publisher, intelligence Intelligence) *Orchestrator {
	return &Orchestrator{
		publisher:    publisher,
		intelligence: intelligence,
		logger:       applog.NewModuleLogger("pipeline", "orchestrator"),
	}
}

// Run 并发执行两条车道并等待全部结束
// meta.InteractionType 由调用方设定，允许与信封上的交互类型不同
// （批量端点：信封 transcript，智能行 batch_upload）。
// 调用方请求的取消不会传染给已经启动的车道：上传 worker 场景
// 没有调用方，车道自然跑完
func (o *Orchestrator) Run(ctx context.Context, env *envelope.EnvelopeV1, personaCode string, meta domainintel.Meta, cleanedTranscript string) {
	// 一旦启动就与请求生命周期解耦
	ctx = context.WithoutCancel(ctx)

	interactionID := env.InteractionID.String()

	var wg conc.WaitGroup

	wg.Go(func() {
		result := o.publisher.Publish(ctx, env)
		o.logger.Info("Publish lane completed",
			"interaction_id", interactionID,
			"stream", publishStatus(result.StreamSequence),
			"bus", publishStatus(result.BusEventID),
		)
	})

	wg.Go(func() {
		if analysis := o.intelligence.ProcessTranscript(ctx, cleanedTranscript, personaCode, meta); analysis != nil {
			o.logger.Info("Intelligence lane completed",
				"interaction_id", interactionID,
				"insights", analysis.InsightCount(),
			)
		}
	})

	// 车道内的 panic 被捕获：记录但不再向上传播
	if recovered := wg.WaitAndRecover(); recovered != nil {
		o.logger.Error("Pipeline lane panicked",
			"interaction_id", interactionID,
			"panic", recovered.String(),
		)
	}
}

func publishStatus(ack string) string {
	if ack == "" {
		return "failed"
	}
	return "success"
}
