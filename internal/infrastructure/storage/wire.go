package storage

import "github.com/google/wire"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,                 // 提供数据库连接
	NewConversationRepository, // 会话/消息仓储
	NewArtifactRepository,     // 制品仓储（模糊缓存）
)
