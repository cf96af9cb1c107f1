package log

import (
	"context"
	"log/slog"
)

// 上下文键定义
const (
	// TraceContextID 分布式追踪 ID
	TraceContextID = "trace_id"

	// InteractionContextID 交互 ID
	InteractionContextID = "interaction_id"

	// TenantContextID 租户 ID
	TenantContextID = "tenant_id"

	// SessionContextID 实时会话 ID
	SessionContextID = "session_id"

	// JobContextID 上传任务 ID
	JobContextID = "job_id"
)

// WithTraceID 在上下文中添加追踪 ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceContextID, traceID)
}

// WithInteractionID 在上下文中添加交互 ID
func WithInteractionID(ctx context.Context, interactionID string) context.Context {
	return context.WithValue(ctx, InteractionContextID, interactionID)
}

// WithTenantID 在上下文中添加租户 ID
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantContextID, tenantID)
}

// WithSessionID 在上下文中添加会话 ID
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionContextID, sessionID)
}

// WithJobID 在上下文中添加任务 ID
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobContextID, jobID)
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if traceID := ctx.Value(TraceContextID); traceID != nil {
		attrs = append(attrs, slog.String("trace_id", traceID.(string)))
	}
	if interactionID := ctx.Value(InteractionContextID); interactionID != nil {
		attrs = append(attrs, slog.String("interaction_id", interactionID.(string)))
	}
	if tenantID := ctx.Value(TenantContextID); tenantID != nil {
		attrs = append(attrs, slog.String("tenant_id", tenantID.(string)))
	}
	if sessionID := ctx.Value(SessionContextID); sessionID != nil {
		attrs = append(attrs, slog.String("session_id", sessionID.(string)))
	}
	if jobID := ctx.Value(JobContextID); jobID != nil {
		attrs = append(attrs, slog.String("job_id", jobID.(string)))
	}

	return attrs
}
