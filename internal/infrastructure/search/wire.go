package search

import "github.com/google/wire"

// ProviderSet 检索客户端 ProviderSet
var ProviderSet = wire.NewSet(
	NewClient,
)
