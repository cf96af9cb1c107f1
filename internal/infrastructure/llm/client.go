package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// Client LLM 客户端
// 薄适配层：暴露"JSON Schema 约束输出 + 校验失败重试 N 次"，
// 换模型只改配置
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient 创建 LLM 客户端
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return &Client{
		api:    openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: applog.NewModuleLogger("llm", "client"),
	}, nil
}

// Model 当前模型名
func (c *Client) Model() string {
	return c.model
}

// CreateStructured 发起一次 JSON Schema 约束的结构化补全并解析进 out
// out 必须是指向结构体的指针，schema 由其反射生成
func (c *Client) CreateStructured(ctx context.Context, system, user, schemaName string, temperature float32, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", schemaName, err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("LLM API request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("LLM API returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to decode structured output: %w", err)
	}

	c.logger.Debug("Structured completion ok",
		"schema", schemaName,
		"model", c.model,
		"tokens", resp.Usage.TotalTokens,
	)
	return nil
}

// CreateStructuredWithRetries 校验失败时重试，最多 maxRetries 次
func (c *Client) CreateStructuredWithRetries(ctx context.Context, system, user, schemaName string, temperature float32, maxRetries int, out any) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = c.CreateStructured(ctx, system, user, schemaName, temperature, out)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("Structured completion attempt failed",
			"schema", schemaName,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}
	return lastErr
}
