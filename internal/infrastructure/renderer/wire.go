package renderer

import "github.com/google/wire"

// ProviderSet 渲染客户端 ProviderSet
var ProviderSet = wire.NewSet(
	NewClient,
)
