package handler

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/session"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/domain/identity"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/auth"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"
)

// ListenHandler 实时转写会话处理器
type ListenHandler struct {
	resolver *auth.Resolver
	service  *session.Service
	upgrader gorillaws.Upgrader
	logger   *slog.Logger
}

// NewListenHandler 创建实时会话处理器
func NewListenHandler(resolver *auth.Resolver, service *session.Service) *ListenHandler {
	return &ListenHandler{
		resolver: resolver,
		service:  service,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 演示页与网关同源部署，上游网关负责来源控制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: applog.NewModuleLogger("http", "listen"),
	}
}

// closeCodeBadToken 身份验证失败时的 WebSocket 关闭码
const closeCodeBadToken = 4001

// Listen 升级为 WebSocket 并驱动实时会话
// GET /listen
// 身份：?token= 查询参数优先，其次普通请求头（遗留模式）。
// 先升级再验证：坏令牌以关闭码 4001 结束连接，而非 HTTP 错误
func (h *ListenHandler) Listen(c *gin.Context) {
	conn, upgradeErr := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if upgradeErr != nil {
		h.logger.Error("WebSocket upgrade failed", "error", upgradeErr)
		return
	}

	rc, err := h.resolve(c)
	if err != nil {
		_, detail := middleware.MapAuthError(err)
		h.logger.Warn("Live session rejected", "detail", detail)
		_ = conn.WriteControl(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(closeCodeBadToken, detail),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	h.service.HandleSession(c.Request.Context(), conn, rc)
}

// resolve WebSocket 场景的身份解析
func (h *ListenHandler) resolve(c *gin.Context) (*identity.RequestContext, error) {
	if token := c.Query("token"); token != "" {
		return h.resolver.ResolveToken(token, c.GetHeader("X-Trace-Id"))
	}
	return h.resolver.Resolve(c.Request.Header)
}
