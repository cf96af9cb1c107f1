package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/auth"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/config"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/handler"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces/http/middleware"

	_ "github.com/oneilstokeseqrm/ingestion-gateway/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	resolver *auth.Resolver,
	textHandler *handler.TextHandler,
	batchHandler *handler.BatchHandler,
	uploadHandler *handler.UploadHandler,
	listenHandler *handler.ListenHandler,
	demoHandler *handler.DemoHandler,
) *HTTPServer {
	router := gin.Default()

	logger := log.NewModuleLogger("http", "server")

	authRequired := middleware.Auth(resolver)

	// 注册路由
	text := router.Group("/text", authRequired)
	{
		text.POST("/clean", textHandler.Clean)
	}

	batch := router.Group("/batch", authRequired)
	{
		batch.POST("/process", batchHandler.Process)
	}

	upload := router.Group("/upload", authRequired)
	{
		upload.POST("/init", uploadHandler.Init)
		upload.POST("/complete", uploadHandler.Complete)
		upload.GET("/status/:job_id", uploadHandler.Status)
	}

	// 实时会话：身份在 handler 内解析（token 走查询参数）
	router.GET("/listen", listenHandler.Listen)

	// 演示录音页
	router.GET("/", demoHandler.Index)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Stop 优雅关闭服务器
func (s *HTTPServer) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

// Router 暴露路由（测试用）
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}
