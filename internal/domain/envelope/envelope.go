package envelope

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SchemaVersionV1 事件 schema 版本号
const SchemaVersionV1 = "v1"

// 内容格式
const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
	FormatDiarized = "diarized"
)

// 交互类型
const (
	InteractionTypeTranscript  = "transcript"
	InteractionTypeNote        = "note"
	InteractionTypeMeeting     = "meeting"
	InteractionTypeBatchUpload = "batch_upload"
	InteractionTypeDocument    = "document"
)

// 内容来源
const (
	SourceWebMic    = "web-mic"
	SourceUpload    = "upload"
	SourceAPI       = "api"
	SourceWebSocket = "websocket"
	SourceImport    = "import"
)

// Content 信封的内容载荷
type Content struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

// EnvelopeV1 所有下游交接使用的标准事件信封（版本 1）
// 每次发布前恰好序列化一次；serialize → deserialize 必须逐字段还原
type EnvelopeV1 struct {
	SchemaVersion   string         `json:"schema_version"`
	TenantID        uuid.UUID      `json:"tenant_id"`
	UserID          string         `json:"user_id"`
	InteractionType string         `json:"interaction_type"`
	Content         Content        `json:"content"`
	Timestamp       time.Time      `json:"timestamp"`
	Source          string         `json:"source"`
	Extras          map[string]any `json:"extras"`
	InteractionID   uuid.UUID      `json:"interaction_id"`
	TraceID         string         `json:"trace_id"`
	AccountID       string         `json:"account_id,omitempty"`
}

// New 创建信封并固定 schema 版本
func New(tenantID uuid.UUID, userID, interactionType string, content Content, source string) *EnvelopeV1 {
	return &EnvelopeV1{
		SchemaVersion:   SchemaVersionV1,
		TenantID:        tenantID,
		UserID:          userID,
		InteractionType: interactionType,
		Content:         content,
		Timestamp:       time.Now().UTC(),
		Source:          source,
		Extras:          map[string]any{},
	}
}

// envelopeJSON 序列化中间形态：timestamp 固定为带 Z 后缀的 RFC3339
type envelopeJSON struct {
	SchemaVersion   string         `json:"schema_version"`
	TenantID        uuid.UUID      `json:"tenant_id"`
	UserID          string         `json:"user_id"`
	InteractionType string         `json:"interaction_type"`
	Content         Content        `json:"content"`
	Timestamp       string         `json:"timestamp"`
	Source          string         `json:"source"`
	Extras          map[string]any `json:"extras"`
	InteractionID   uuid.UUID      `json:"interaction_id"`
	TraceID         string         `json:"trace_id"`
	AccountID       string         `json:"account_id,omitempty"`
}

// MarshalJSON 序列化：UTC 时间带 Z 后缀，UUID 为小写连字符形式
func (e EnvelopeV1) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		SchemaVersion:   e.SchemaVersion,
		TenantID:        e.TenantID,
		UserID:          e.UserID,
		InteractionType: e.InteractionType,
		Content:         e.Content,
		Timestamp:       e.Timestamp.UTC().Format(time.RFC3339Nano),
		Source:          e.Source,
		Extras:          e.Extras,
		InteractionID:   e.InteractionID,
		TraceID:         e.TraceID,
		AccountID:       e.AccountID,
	})
}

// UnmarshalJSON 反序列化，与 MarshalJSON 往返一致
func (e *EnvelopeV1) UnmarshalJSON(data []byte) error {
	var raw envelopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return err
	}

	e.SchemaVersion = raw.SchemaVersion
	e.TenantID = raw.TenantID
	e.UserID = raw.UserID
	e.InteractionType = raw.InteractionType
	e.Content = raw.Content
	e.Timestamp = ts.UTC()
	e.Source = raw.Source
	e.Extras = raw.Extras
	e.InteractionID = raw.InteractionID
	e.TraceID = raw.TraceID
	e.AccountID = raw.AccountID
	return nil
}

// StreamRecord Kinesis 记录的外层包装
// 关键路由字段复制到顶层，消费方无需解析完整信封即可路由
type StreamRecord struct {
	Envelope      *EnvelopeV1 `json:"envelope"`
	TraceID       string      `json:"trace_id"`
	TenantID      string      `json:"tenant_id"`
	SchemaVersion string      `json:"schema_version"`
}

// Wrap 构建流记录包装
func (e *EnvelopeV1) Wrap() *StreamRecord {
	return &StreamRecord{
		Envelope:      e,
		TraceID:       e.TraceID,
		TenantID:      e.TenantID.String(),
		SchemaVersion: e.SchemaVersion,
	}
}

// PartitionKey 流分区键：租户内有序
func (e *EnvelopeV1) PartitionKey() string {
	return e.TenantID.String()
}
