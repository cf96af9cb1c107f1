package wire

import (
	"database/sql"
	"errors"
	"net/http"

	"log/slog"

	"github.com/oneilstokeseqrm/ingestion-gateway/internal/application/upload"
	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/websocket"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer   *interfaces.HTTPServer
	uploadWorker *upload.Worker
	wsRegistry   *websocket.Registry
	db           *sql.DB
	logger       *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	uploadWorker *upload.Worker,
	wsRegistry *websocket.Registry,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:   httpServer,
		uploadWorker: uploadWorker,
		wsRegistry:   wsRegistry,
		db:           db,
		logger:       applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting ingestion gateway")

	// 后台上传 worker（包含启动时的卡死任务回收）
	a.uploadWorker.Start()

	// HTTP 服务在独立 goroutine 中监听
	errCh := make(chan error, 1)
	go func() {
		if err := a.HTTPServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server exited", "error", err)
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	default:
	}

	a.logger.Info("Ingestion gateway started")
	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping ingestion gateway")

	var firstErr error

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server", "error", err)
		firstErr = err
	}

	// 关闭剩余的实时会话连接
	a.wsRegistry.CloseAll()

	// 等待在途上传任务处理完
	a.uploadWorker.Stop()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.logger.Info("Ingestion gateway stopped")
	return firstErr
}
