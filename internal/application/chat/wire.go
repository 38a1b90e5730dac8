package chat

import "github.com/google/wire"

// ProviderSet 会话应用层 ProviderSet
// 注意：Planner 及 Generator/Searcher/EmailSender/Pusher 接口绑定在顶层 providers 中处理
var ProviderSet = wire.NewSet(
	NewContextStore,
	NewService,
)
