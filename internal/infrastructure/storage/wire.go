package storage

import "github.com/google/wire"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,                 // 提供数据库连接
	NewUploadJobRepository,    // 上传任务仓储
	NewIntelligenceRepository, // 智能抽取结果仓储
)
