package watcher

import "github.com/google/wire"

// ProviderSet 规则监听 ProviderSet
var ProviderSet = wire.NewSet(
	NewRulesWatcher,
)
