package transcription

import (
	"context"
	"fmt"

	"log/slog"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// SegmentHandler 实时转写片段回调
// isFinal 为 true 表示该片段是供应商确认的最终结果
type SegmentHandler func(transcript string, isFinal bool)

// LiveConn 实时转写连接
type LiveConn interface {
	// WriteBinary 把一帧音频转发给供应商
	WriteBinary(data []byte) error
	// Stop 结束会话并关闭下游连接
	Stop()
}

// liveConn SDK 连接的薄包装
type liveConn struct {
	client *listen.WSCallback
}

func (c *liveConn) WriteBinary(data []byte) error {
	return c.client.WriteBinary(data)
}

func (c *liveConn) Stop() {
	c.client.Stop()
}

// OpenLive 打开一条下游实时转写连接
// 每个片段（含中间结果）通过 handler 交回调用方，isFinal 标明是否为最终结果
func (c *Client) OpenLive(ctx context.Context, handler SegmentHandler) (LiveConn, error) {
	options := &interfaces.LiveTranscriptionOptions{
		Model:          "nova-2",
		Punctuate:      true,
		SmartFormat:    true,
		InterimResults: true,
	}

	callback := &liveCallback{
		handler: handler,
		logger:  applog.NewModuleLogger("transcription", "live"),
	}

	client, err := listen.NewWSUsingCallback(ctx, c.apiKey, &interfaces.ClientOptions{}, options, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to create live transcription client: %w", err)
	}

	if ok := client.Connect(); !ok {
		return nil, fmt.Errorf("failed to connect to live transcription service")
	}

	return &liveConn{client: client}, nil
}

// liveCallback 实现 SDK 的消息回调接口，只关心转写消息
type liveCallback struct {
	handler SegmentHandler
	logger  *slog.Logger
}

func (cb *liveCallback) Open(or *msginterfaces.OpenResponse) error {
	cb.logger.Info("Live transcription connection open")
	return nil
}

func (cb *liveCallback) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	text := mr.Channel.Alternatives[0].Transcript
	if text == "" {
		return nil
	}
	cb.handler(text, mr.IsFinal)
	return nil
}

func (cb *liveCallback) Metadata(md *msginterfaces.MetadataResponse) error {
	return nil
}

func (cb *liveCallback) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (cb *liveCallback) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	return nil
}

func (cb *liveCallback) Close(cr *msginterfaces.CloseResponse) error {
	cb.logger.Info("Live transcription connection closed")
	return nil
}

func (cb *liveCallback) Error(er *msginterfaces.ErrorResponse) error {
	cb.logger.Error("Live transcription error",
		"description", er.Description,
		"message", er.ErrMsg,
	)
	return nil
}

func (cb *liveCallback) UnhandledEvent(byData []byte) error {
	return nil
}
