package eventstream

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// busDetailType 总线事件类型
const busDetailType = "BatchProcessingCompleted"

// streamAPI Kinesis 客户端子集（便于测试替身）
type streamAPI interface {
	PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
}

// busAPI EventBridge 客户端子集
type busAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// PublishResult 双目的地各自的确认信息；失败的一侧为空
type PublishResult struct {
	StreamSequence string
	BusEventID     string
}

// Publisher 信封扇出发布器
// 两个目的地各自尽力尝试，互不影响；任何失败都不抛给调用方。
// 同租户事件以 tenant_id 为分区键，在单发布实例内按提交顺序送达
type Publisher struct {
	stream streamAPI
	bus    busAPI

	streamName string
	busName    string
	source     string

	streamEnabled bool
	busEnabled    bool

	logger *slog.Logger
}

// NewPublisher 创建扇出发布器
// 凭证缺失时对应目的地降级为关闭并告警，不阻止服务启动
func NewPublisher(awsCfg *config.AWSConfig, cfg *config.EventsConfig) *Publisher {
	logger := applog.NewModuleLogger("eventstream", "publisher")

	p := &Publisher{
		streamName:    cfg.KinesisStream,
		busName:       cfg.EventBusName,
		source:        cfg.EventSource,
		streamEnabled: cfg.KinesisEnabled,
		busEnabled:    cfg.EventBridgeEnabled,
		logger:        logger,
	}

	loaded, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(awsCfg.Region),
	)
	if err != nil {
		logger.Warn("Failed to load AWS config, publishing disabled", "error", err)
		return p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := loaded.Credentials.Retrieve(ctx); err != nil {
		logger.Warn("AWS credentials not found, publishing disabled",
			"error", err,
		)
		return p
	}

	p.stream = kinesis.NewFromConfig(loaded)
	p.bus = eventbridge.NewFromConfig(loaded)

	logger.Info("Event publisher initialized",
		"stream", p.streamName,
		"bus", p.busName,
		"source", p.source,
	)
	return p
}

// Publish 把信封扇出到流与总线
// 顺序：先流后总线；任一侧失败只记日志。绝不记录转写正文，只记长度
func (p *Publisher) Publish(ctx context.Context, env *envelope.EnvelopeV1) PublishResult {
	var result PublishResult

	if p.streamEnabled {
		result.StreamSequence = p.publishToStream(ctx, env)
	} else {
		p.logger.Info("Stream publishing disabled via configuration",
			"interaction_id", env.InteractionID.String(),
		)
	}

	if p.busEnabled {
		result.BusEventID = p.publishToBus(ctx, env)
	} else {
		p.logger.Info("Bus publishing disabled via configuration",
			"interaction_id", env.InteractionID.String(),
		)
	}

	if result.StreamSequence == "" && result.BusEventID == "" && (p.streamEnabled || p.busEnabled) {
		p.logger.Warn("All enabled publish destinations failed",
			"interaction_id", env.InteractionID.String(),
			"tenant_id", env.TenantID.String(),
		)
	}

	return result
}

// publishToStream 发布包装记录到流，分区键为 tenant_id
func (p *Publisher) publishToStream(ctx context.Context, env *envelope.EnvelopeV1) string {
	if p.stream == nil {
		p.logger.Warn("Stream client not initialized, skipping publish",
			"interaction_id", env.InteractionID.String(),
			"tenant_id", env.TenantID.String(),
		)
		return ""
	}

	data, err := json.Marshal(env.Wrap())
	if err != nil {
		p.logger.Error("Failed to marshal stream record",
			"interaction_id", env.InteractionID.String(),
			"error", err,
		)
		return ""
	}

	out, err := p.stream.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(p.streamName),
		Data:         data,
		PartitionKey: aws.String(env.PartitionKey()),
	})
	if err != nil {
		p.logger.Error("Stream publish failed",
			"interaction_id", env.InteractionID.String(),
			"tenant_id", env.TenantID.String(),
			"payload_length", len(data),
			"error", err,
		)
		return ""
	}

	seq := aws.ToString(out.SequenceNumber)
	p.logger.Info("Stream publish success",
		"interaction_id", env.InteractionID.String(),
		"tenant_id", env.TenantID.String(),
		"sequence", seq,
	)
	return seq
}

// publishToBus 发布完整信封到事件总线
func (p *Publisher) publishToBus(ctx context.Context, env *envelope.EnvelopeV1) string {
	if p.bus == nil {
		p.logger.Warn("Bus client not initialized, skipping publish",
			"interaction_id", env.InteractionID.String(),
			"tenant_id", env.TenantID.String(),
		)
		return ""
	}

	detail, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("Failed to marshal envelope for bus",
			"interaction_id", env.InteractionID.String(),
			"error", err,
		)
		return ""
	}

	out, err := p.bus.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{
			{
				Source:       aws.String(p.source),
				DetailType:   aws.String(busDetailType),
				Detail:       aws.String(string(detail)),
				EventBusName: aws.String(p.busName),
			},
		},
	})
	if err != nil {
		p.logger.Error("Bus publish failed",
			"interaction_id", env.InteractionID.String(),
			"tenant_id", env.TenantID.String(),
			"payload_length", len(detail),
			"error", err,
		)
		return ""
	}

	if out.FailedEntryCount > 0 {
		entry := out.Entries[0]
		p.logger.Error("Bus publish rejected",
			"interaction_id", env.InteractionID.String(),
			"tenant_id", env.TenantID.String(),
			"error_code", aws.ToString(entry.ErrorCode),
			"error_message", aws.ToString(entry.ErrorMessage),
		)
		return ""
	}

	eventID := aws.ToString(out.Entries[0].EventId)
	p.logger.Info("Bus publish success",
		"interaction_id", env.InteractionID.String(),
		"tenant_id", env.TenantID.String(),
		"event_id", eventID,
	)
	return eventID
}

// transcriptSegmentRecord 实时会话的轻量遥测记录（非完整信封）
type transcriptSegmentRecord struct {
	EventType  string `json:"event_type"`
	Transcript string `json:"transcript"`
	TenantID   string `json:"tenant_id"`
	SessionID  string `json:"session_id"`
	Timestamp  string `json:"timestamp"`
}

// PublishTranscriptSegment 发布实时会话的最终片段遥测到流
// 完整信封只在会话收尾时发布一次
func (p *Publisher) PublishTranscriptSegment(ctx context.Context, tenantID, sessionID, segment string) error {
	if p.stream == nil || !p.streamEnabled {
		return nil
	}

	record := transcriptSegmentRecord{
		EventType:  "transcript_segment",
		Transcript: segment,
		TenantID:   tenantID,
		SessionID:  sessionID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = p.stream.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(p.streamName),
		Data:         data,
		PartitionKey: aws.String(tenantID),
	})
	if err != nil {
		p.logger.Warn("Transcript segment publish failed",
			"session_id", sessionID,
			"segment_length", len(segment),
			"error", err,
		)
	}
	return err
}
