package events

import "github.com/google/wire"

// ProviderSet 事件队列 ProviderSet
var ProviderSet = wire.NewSet(
	NewQueue,
)
