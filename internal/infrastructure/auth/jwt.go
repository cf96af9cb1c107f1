package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
)

// 时钟偏移容忍
const clockSkewLeeway = 30 * time.Second

// minSecretLength 共享密钥最短长度
const minSecretLength = 32

// Claims 网关签发的内部 JWT 声明
// tenant_id 与 user_id 必填，其余为可选的身份桥接字段
type Claims struct {
	TenantID      string `json:"tenant_id"`
	UserID        string `json:"user_id"`
	PGUserID      string `json:"pg_user_id,omitempty"`
	UserName      string `json:"user_name,omitempty"`
	AccountID     string `json:"account_id,omitempty"`
	InteractionID string `json:"interaction_id,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier 内部 JWT 验证器（HMAC-SHA256 对称签名）
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	logger   *slog.Logger
}

// NewVerifier 创建验证器；密钥缺失或过短视为配置错误
func NewVerifier(cfg *config.AuthConfig) (*Verifier, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("INTERNAL_JWT_SECRET is not configured")
	}
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("INTERNAL_JWT_SECRET is too short (min %d chars)", minSecretLength)
	}

	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		logger:   applog.NewModuleLogger("auth", "jwt"),
	}, nil
}

// Verify 验证令牌并提取声明
// 依次校验：签名、签发方、受众、过期时间（容忍 30s 偏移）、必填声明
func (v *Verifier) Verify(token string) (*Claims, error) {
	v.logger.Debug("Verifying internal JWT",
		"token_preview", applog.TokenPreview(token),
	)

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			v.logger.Warn("JWT has expired")
			return nil, NewError(CodeAuthExpired, "token has expired")
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			v.logger.Warn("JWT has invalid issuer", "expected", v.issuer)
			return nil, NewError(CodeAuthInvalid, "invalid token issuer")
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			v.logger.Warn("JWT has invalid audience", "expected", v.audience)
			return nil, NewError(CodeAuthInvalid, "invalid token audience")
		default:
			v.logger.Warn("JWT verification failed", "error_type", fmt.Sprintf("%T", err))
			return nil, NewError(CodeAuthInvalid, "invalid token")
		}
	}

	if claims.TenantID == "" {
		v.logger.Warn("JWT missing tenant_id claim")
		return nil, NewError(CodeValidationMissingField, "missing required claim: tenant_id")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		v.logger.Warn("JWT missing user_id claim")
		return nil, NewError(CodeValidationMissingField, "missing required claim: user_id")
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		v.logger.Warn("JWT tenant_id is not a valid UUID")
		return nil, NewError(CodeValidationInvalidUUID, "invalid tenant_id format: must be UUID")
	}

	v.logger.Info("JWT verified",
		"tenant_id_prefix", claims.TenantID[:8],
	)

	return claims, nil
}

// ExtractBearerToken 从 Authorization 头中取出令牌
// 头缺失或格式不对时返回空串
func ExtractBearerToken(authorization string) string {
	if authorization == "" {
		return ""
	}
	if !strings.HasPrefix(authorization, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authorization[len("Bearer "):])
}
