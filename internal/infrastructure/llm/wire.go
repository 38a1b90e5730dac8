package llm

import "github.com/google/wire"

// ProviderSet LLM 客户端 ProviderSet
var ProviderSet = wire.NewSet(
	NewChatClient,
	NewPlannerClient,
	NewCodeClient,
)
