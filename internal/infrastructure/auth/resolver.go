package auth

import (
	"net/http"

	"log/slog"

	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// Resolver 请求身份解析器
// 优先尝试签名令牌模式，缺失时按配置回退到遗留头模式
type Resolver struct {
	verifier      *Verifier
	legacyEnabled bool
	mockTenantID  string
	mockUserID    string
	logger        *slog.Logger
}

// NewResolver 创建解析器
// verifier 可能为 nil（密钥未配置）：此时仅遗留头模式可用
func NewResolver(cfg *config.AuthConfig) *Resolver {
	logger := applog.NewModuleLogger("auth", "resolver")

	verifier, err := NewVerifier(cfg)
	if err != nil {
		logger.Warn("JWT verification disabled", "error", err)
	}

	return &Resolver{
		verifier:      verifier,
		legacyEnabled: cfg.AllowLegacyHeaderAuth,
		mockTenantID:  cfg.MockTenantID,
		mockUserID:    cfg.MockUserID,
		logger:        logger,
	}
}

// Resolve 从请求头解析 RequestContext
// 签名令牌优先；无令牌且启用遗留模式时读取 X-Tenant-ID / X-User-ID；
// 否则返回 AUTH_MISSING
func (r *Resolver) Resolve(header http.Header) (*identity.RequestContext, error) {
	token := ExtractBearerToken(header.Get("Authorization"))
	if token != "" {
		return r.ResolveToken(token, header.Get("X-Trace-Id"))
	}

	if r.legacyEnabled {
		return r.resolveLegacyHeaders(header)
	}

	return nil, NewError(CodeAuthMissing, "missing authorization")
}

// ResolveToken 从裸令牌解析 RequestContext（WebSocket 查询参数等场景）
func (r *Resolver) ResolveToken(token, headerTraceID string) (*identity.RequestContext, error) {
	if r.verifier == nil {
		return nil, NewError(CodeAuthInvalid, "token authentication is not configured")
	}

	claims, err := r.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, NewError(CodeValidationInvalidUUID, "invalid tenant_id format: must be UUID")
	}

	rc := identity.NewRequestContext(tenantID, claims.UserID)
	rc.PGUserID = claims.PGUserID
	rc.UserName = claims.UserName
	rc.AccountID = claims.AccountID

	// 内部调用方（上传 worker）可显式携带任务创建时铸造的 interaction_id
	if claims.InteractionID != "" {
		if id, err := uuid.Parse(claims.InteractionID); err == nil {
			rc.InteractionID = id
		}
	}

	applyTraceID(rc, claims.TraceID, headerTraceID)

	r.logContext(rc, "token")
	return rc, nil
}

// resolveLegacyHeaders 遗留头模式：X-Tenant-ID 与 X-User-ID
// 头缺失时回退到 MOCK_TENANT_ID / MOCK_USER_ID（仅开发环境）
func (r *Resolver) resolveLegacyHeaders(header http.Header) (*identity.RequestContext, error) {
	rawTenant := header.Get("X-Tenant-ID")
	if rawTenant == "" {
		rawTenant = r.mockTenantID
	}
	if rawTenant == "" {
		return nil, NewError(CodeAuthMissing, "missing X-Tenant-ID header")
	}

	tenantID, err := uuid.Parse(rawTenant)
	if err != nil {
		return nil, NewError(CodeValidationInvalidUUID, "invalid tenant_id format: must be UUID")
	}

	userID := header.Get("X-User-ID")
	if userID == "" {
		userID = r.mockUserID
	}
	if userID == "" {
		return nil, NewError(CodeValidationMissingField, "missing X-User-ID header")
	}

	rc := identity.NewRequestContext(tenantID, userID)
	rc.AccountID = header.Get("X-Account-ID")

	applyTraceID(rc, "", header.Get("X-Trace-Id"))

	r.logContext(rc, "legacy-header")
	return rc, nil
}

// applyTraceID 有效的调用方 trace_id 被保留，否则保持新铸造的值
func applyTraceID(rc *identity.RequestContext, claimTraceID, headerTraceID string) {
	for _, candidate := range []string{claimTraceID, headerTraceID} {
		if candidate == "" {
			continue
		}
		if _, err := uuid.Parse(candidate); err == nil {
			rc.TraceID = candidate
			return
		}
	}
}

func (r *Resolver) logContext(rc *identity.RequestContext, mode string) {
	r.logger.Info("Request context resolved",
		"mode", mode,
		"tenant_id", rc.TenantID.String(),
		"interaction_id", rc.InteractionID.String(),
		"trace_id", rc.TraceID,
	)
}
