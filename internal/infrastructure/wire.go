package infrastructure

import (
	"github.com/google/wire"

	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/email"
	"github.com/watira/backend/internal/infrastructure/events"
	"github.com/watira/backend/internal/infrastructure/llm"
	"github.com/watira/backend/internal/infrastructure/renderer"
	"github.com/watira/backend/internal/infrastructure/search"
	"github.com/watira/backend/internal/infrastructure/storage"
	"github.com/watira/backend/internal/infrastructure/watcher"
	"github.com/watira/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	events.ProviderSet,
	llm.ProviderSet,
	search.ProviderSet,
	renderer.ProviderSet,
	email.ProviderSet,
	websocket.ProviderSet,
	watcher.ProviderSet,
	// 可以继续添加其他基础设施模块
)
