package identity

import (
	"github.com/google/uuid"
)

// RequestContext 每个请求解析出的多租户身份上下文
// 在请求边界创建一次，之后只读，随所有下游调用传递
type RequestContext struct {
	// TenantID 租户/组织 UUID
	TenantID uuid.UUID

	// UserID 用户标识（支持带提供方前缀的形式，如 auth0|xxx）
	UserID string

	// PGUserID 身份桥接出的次级用户键（可选）
	PGUserID string

	// UserName 用户展示名（可选）
	UserName string

	// AccountID 账户级上下文（可选）
	AccountID string

	// InteractionID 本次交互的唯一标识，每个请求新铸造
	InteractionID uuid.UUID

	// TraceID 分布式追踪标识：调用方传入有效值则继承，否则新铸造
	TraceID string
}

// NewRequestContext 创建上下文并铸造 interaction_id / trace_id
func NewRequestContext(tenantID uuid.UUID, userID string) *RequestContext {
	return &RequestContext{
		TenantID:      tenantID,
		UserID:        userID,
		InteractionID: uuid.New(),
		TraceID:       uuid.New().String(),
	}
}
