//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"github.com/watira/backend/internal/application"
	appchat "github.com/watira/backend/internal/application/chat"
	"github.com/watira/backend/internal/infrastructure"
	"github.com/watira/backend/internal/infrastructure/watcher"
	"github.com/watira/backend/internal/interfaces"
)

// InitializeAll 初始化所有服务
func InitializeAll() (*App, error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		// 同接口多实现的显式 Provider
		ProvideChatGenerator,
		ProvidePlanner,
		ProvideVisualPipeline,
		ProvideSearcher,
		ProvideEmailSender,
		ProvideServiceConfig,
		// 接口绑定：规则热加载写入 Planner
		wire.Bind(
			new(watcher.RulesApplier),
			new(*appchat.Planner),
		),
		NewApp, // 组合所有服务的应用结构
	)
	return nil, nil
}
