package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/auth"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/response"
)

// contextKey gin 上下文中请求身份的键
const contextKey = "request_context"

// Auth 身份解析中间件
// 失败时按错误码映射 400/401 并中止；成功时把只读的
// RequestContext 放入 gin 上下文
func Auth(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, err := resolver.Resolve(c.Request.Header)
		if err != nil {
			status, detail := MapAuthError(err)
			response.AbortError(c, status, detail)
			return
		}
		c.Set(contextKey, rc)
		c.Next()
	}
}

// MapAuthError 身份错误到 HTTP 状态码的映射
// AUTH_* -> 401；VALIDATION_* -> 400
func MapAuthError(err error) (int, string) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		if strings.HasPrefix(authErr.Code, "AUTH_") {
			return http.StatusUnauthorized, authErr.Message
		}
		return http.StatusBadRequest, authErr.Message
	}
	return http.StatusUnauthorized, "authentication failed"
}

// MustContext 取出中间件放入的 RequestContext
// 只能在 Auth 之后的 handler 中调用
func MustContext(c *gin.Context) *identity.RequestContext {
	return c.MustGet(contextKey).(*identity.RequestContext)
}
