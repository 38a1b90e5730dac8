package application

import (
	"github.com/google/wire"

	"github.com/watira/backend/internal/application/chat"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	chat.ProviderSet,
	// 可以继续添加其他应用服务模块
)
