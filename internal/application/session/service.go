package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/cleaner"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/envelope"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	domainintel "github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/intelligence"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/eventstream"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/sessionbuffer"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/transcription"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/websocket"
)

// controlMessage 客户端控制帧
type controlMessage struct {
	Type string `json:"type"`
}

// completeMessage 会话收尾帧
type completeMessage struct {
	Type              string   `json:"type"`
	Summary           string   `json:"summary"`
	ActionItems       []string `json:"action_items"`
	CleanedTranscript string   `json:"cleaned_transcript"`
	RawTranscript     string   `json:"raw_transcript"`
}

// Buffer 会话缓冲依赖
type Buffer interface {
	Append(ctx context.Context, sessionID uuid.UUID, chunk string) error
	FinalTranscript(ctx context.Context, sessionID uuid.UUID) (string, error)
}

// LiveTranscriber 实时转写依赖
type LiveTranscriber interface {
	OpenLive(ctx context.Context, handler transcription.SegmentHandler) (transcription.LiveConn, error)
}

// MeetingCleaner 会话收尾清洗依赖
type MeetingCleaner interface {
	CleanMeeting(ctx context.Context, rawTranscript string) *cleaner.MeetingOutput
}

// Orchestrator 异步叉依赖
type Orchestrator interface {
	Run(ctx context.Context, env *envelope.EnvelopeV1, personaCode string, meta domainintel.Meta, cleanedTranscript string)
}

// Telemetry 实时片段遥测依赖
type Telemetry interface {
	PublishTranscriptSegment(ctx context.Context, tenantID, sessionID, segment string) error
}

// Service 实时会话服务
// 双向音频进/转写出；每个最终片段独立写入会话缓冲与遥测流，
// 任一写失败不终止会话。会话关闭时重建全文并走 清洗 -> 异步叉
type Service struct {
	buffer       Buffer
	transcriber  LiveTranscriber
	cleaner      MeetingCleaner
	orchestrator Orchestrator
	telemetry    Telemetry
	registry     *websocket.Registry
	logger       *slog.Logger
}

// NewService 创建实时会话服务
func NewService(
	buffer *sessionbuffer.Store,
	transcriber *transcription.Client,
	cleanerService *cleaner.Service,
	orchestrator Orchestrator,
	publisher *eventstream.Publisher,
	registry *websocket.Registry,
) *Service {
	return &Service{
		buffer:       buffer,
		transcriber:  transcriber,
		cleaner:      cleanerService,
		orchestrator: orchestrator,
		telemetry:    publisher,
		registry:     registry,
		logger:       applog.NewModuleLogger("session", "service"),
	}
}

// HandleSession 驱动一条已升级的 WebSocket 会话直至关闭
// 收尾逻辑在 defer 守卫中执行：无论以何种路径退出都会运行
func (s *Service) HandleSession(ctx context.Context, conn *gorillaws.Conn, rc *identity.RequestContext) {
	sessionID := uuid.New()
	logger := s.logger.With(
		"session_id", sessionID.String(),
		"tenant_id", rc.TenantID.String(),
	)

	logger.Info("Live session established")

	s.registry.Register(&websocket.Session{SessionID: sessionID, Conn: conn})
	defer s.registry.Unregister(sessionID)

	// 最终片段：双写缓冲与遥测，互不阻塞；缓冲 TTL 随每次追加刷新
	onSegment := func(segment string, isFinal bool) {
		// 中间结果直接回传客户端预览
		if err := conn.WriteMessage(gorillaws.TextMessage, []byte(segment)); err != nil {
			logger.Warn("Failed to forward segment to client", "error", err)
		}
		if !isFinal {
			return
		}

		if err := s.buffer.Append(ctx, sessionID, segment); err != nil {
			logger.Error("Failed to buffer transcript segment",
				"segment_length", len(segment),
				"error", err,
			)
		}
		if err := s.telemetry.PublishTranscriptSegment(ctx, rc.TenantID.String(), sessionID.String(), segment); err != nil {
			logger.Warn("Failed to publish transcript telemetry", "error", err)
		}
	}

	live, err := s.transcriber.OpenLive(ctx, onSegment)
	if err != nil {
		logger.Error("Failed to open live transcription", "error", err)
		_ = conn.WriteControl(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseInternalServerErr, "transcription unavailable"),
			closeDeadline())
		_ = conn.Close()
		return
	}

	defer s.finalize(ctx, conn, sessionID, rc, live, logger)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("Client disconnected", "error", err)
			return
		}

		switch msgType {
		case gorillaws.BinaryMessage:
			if err := live.WriteBinary(data); err != nil {
				logger.Error("Failed to forward audio downstream", "error", err)
				return
			}
		case gorillaws.TextMessage:
			var ctrl controlMessage
			if err := json.Unmarshal(data, &ctrl); err != nil {
				continue
			}
			if ctrl.Type == "stop_recording" {
				logger.Info("Stop recording requested")
				return
			}
		}
	}
}

// finalize 会话收尾：排空缓冲、清洗、异步叉、回发收尾帧
// 每一步失败都只记日志，不妨碍后续清理
func (s *Service) finalize(ctx context.Context, conn *gorillaws.Conn, sessionID uuid.UUID, rc *identity.RequestContext, live transcription.LiveConn, logger *slog.Logger) {
	// 收尾不应被请求取消打断
	ctx = context.WithoutCancel(ctx)

	live.Stop()

	rawTranscript, err := s.buffer.FinalTranscript(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to reconstruct session transcript", "error", err)
		_ = conn.Close()
		return
	}

	if strings.TrimSpace(rawTranscript) == "" {
		logger.Warn("Session had no transcript to process")
		_ = conn.Close()
		return
	}

	logger.Info("Finalizing session", "raw_length", len(rawTranscript))

	output := s.cleaner.CleanMeeting(ctx, rawTranscript)

	env := envelope.New(rc.TenantID, rc.UserID, envelope.InteractionTypeMeeting,
		envelope.Content{Text: output.CleanedTranscript, Format: envelope.FormatDiarized},
		envelope.SourceWebSocket)
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
		InteractionType:      envelope.InteractionTypeMeeting,
		AccountID:            parseAccountID(rc.AccountID),
		InteractionTimestamp: env.Timestamp,
	}

	s.orchestrator.Run(ctx, env, domainintel.DefaultPersonaCode, meta, output.CleanedTranscript)

	complete := completeMessage{
		Type:              "session_complete",
		Summary:           output.Summary,
		ActionItems:       output.ActionItems,
		CleanedTranscript: output.CleanedTranscript,
		RawTranscript:     rawTranscript,
	}
	if err := conn.WriteJSON(complete); err != nil {
		logger.Warn("Failed to send session_complete frame", "error", err)
	}

	_ = conn.Close()
	logger.Info("Live session closed")
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

func parseAccountID(accountID string) *uuid.UUID {
	if accountID == "" {
		return nil
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil
	}
	return &id
}
