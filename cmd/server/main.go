// @title Ingestion Gateway API
// @version 1.0
// @description 多租户摄入网关：音频/文本 -> 清洗转写 + 结构化智能
// @host localhost:8000
// @BasePath /
// @schemes http
package main

import (
	"os"
	"os/signal"
	"syscall"

	applog "github.com/oneilstokeseqrm/ingestion-gateway/internal/infrastructure/log"
	"github.com/oneilstokeseqrm/ingestion-gateway/internal/wire"
)

func main() {
	// 初始化日志系统
	applog.Init(nil)

	// Wire 自动生成的初始化函数
	app, err := wire.InitializeAll()
	if err != nil {
		applog.GetLogger().Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}

	// 启动所有服务
	if err := app.Start(); err != nil {
		applog.GetLogger().Error("Failed to start application",
			"error", err,
		)
		os.Exit(1)
	}

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	applog.GetLogger().Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		applog.GetLogger().Error("Error during application shutdown",
			"error", err,
		)
	}
	applog.GetLogger().Info("Application stopped")
}
