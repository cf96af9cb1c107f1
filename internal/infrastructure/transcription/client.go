package transcription

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"log/slog"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/transcript"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// transcribeTimeout 单次转写的时间预算
const transcribeTimeout = 120 * time.Second

// Result 转写结果与诊断元数据
// 元数据用于仅凭日志定位空转写问题
type Result struct {
	// Transcript SPEAKER_<n>: 逐轮格式的转写文本
	Transcript string

	DurationSeconds float64
	Channels        int
	Words           int
}

// Empty 供应商解码成功但没有识别出任何词
func (r *Result) Empty() bool {
	return len(r.Transcript) == 0
}

// Client 预录音频转写客户端
type Client struct {
	apiKey string
	rest   *listenv1rest.Client
	logger *slog.Logger
}

// NewClient 创建转写客户端
func NewClient(cfg *config.TranscriptionConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}

	rest := listen.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &Client{
		apiKey: cfg.APIKey,
		rest:   listenv1rest.New(rest),
		logger: applog.NewModuleLogger("transcription", "client"),
	}, nil
}

// options 固定的转写参数：智能格式化、说话人分离、标点
func (c *Client) options() *interfaces.PreRecordedTranscriptionOptions {
	return &interfaces.PreRecordedTranscriptionOptions{
		Model:       "nova-2",
		SmartFormat: true,
		Diarize:     true,
		Punctuate:   true,
	}
}

// TranscribeBytes 转写内存中的音频字节
func (c *Client) TranscribeBytes(ctx context.Context, audio []byte, mimeType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	c.logger.Info("Starting transcription from bytes",
		"mime_type", mimeType,
		"size", len(audio),
	)

	resp, err := c.rest.FromStream(ctx, bytes.NewReader(audio), c.options())
	if err != nil {
		return nil, fmt.Errorf("transcription from bytes failed: %w", err)
	}

	return c.buildResult(resp, "buffer"), nil
}

// TranscribeURL 从可取回的 URL 转写（预签名 GET URL 等）
// 大文件更高效：供应商直接拉取文件
func (c *Client) TranscribeURL(ctx context.Context, audioURL, mimeType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	c.logger.Info("Starting transcription from URL",
		"mime_type", mimeType,
	)

	resp, err := c.rest.FromURL(ctx, audioURL, c.options())
	if err != nil {
		return nil, fmt.Errorf("transcription from URL failed: %w", err)
	}

	return c.buildResult(resp, "url"), nil
}

// buildResult 把供应商响应转成领域结果并记录诊断元数据
func (c *Client) buildResult(resp *restinterfaces.PreRecordedResponse, sourceLabel string) *Result {
	result := &Result{}

	if resp.Metadata != nil {
		result.DurationSeconds = resp.Metadata.Duration
	}

	var words []transcript.Word
	if resp.Results != nil && len(resp.Results.Channels) > 0 {
		result.Channels = len(resp.Results.Channels)
		channel := resp.Results.Channels[0]
		if len(channel.Alternatives) > 0 {
			for _, w := range channel.Alternatives[0].Words {
				text := w.PunctuatedWord
				if text == "" {
					text = w.Word
				}
				word := transcript.Word{Text: text}
				if w.Speaker != nil {
					word.Speaker = *w.Speaker
					word.HasSpeaker = true
				}
				words = append(words, word)
			}
		}
	}

	result.Words = len(words)
	result.Transcript = transcript.FormatDiarized(words)

	c.logger.Info("Transcription response",
		"source", sourceLabel,
		"duration", result.DurationSeconds,
		"channels", result.Channels,
		"words", result.Words,
		"transcript_length", len(result.Transcript),
	)

	return result
}
