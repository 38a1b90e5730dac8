package wire

import (
	appchat "github.com/watira/backend/internal/application/chat"
	"github.com/watira/backend/internal/application/visual"
	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/email"
	"github.com/watira/backend/internal/infrastructure/llm"
	"github.com/watira/backend/internal/infrastructure/renderer"
	"github.com/watira/backend/internal/infrastructure/search"
)

// 同一个 Generator 接口有三个不同模型的实现，
// 无法用 wire.Bind 区分，这里用显式 Provider 指定注入关系

// ProvideChatGenerator 回答/闲聊使用文本回答模型
func ProvideChatGenerator(client *llm.ChatClient) appchat.Generator {
	return client
}

// ProvidePlanner 意图解析使用分类模型
func ProvidePlanner(classifier *llm.PlannerClient) *appchat.Planner {
	return appchat.NewPlanner(classifier)
}

// ProvideVisualPipeline 可视化流水线：分类用分类模型，生成用代码模型
func ProvideVisualPipeline(classifier *llm.PlannerClient, coder *llm.CodeClient, r *renderer.Client) *visual.Pipeline {
	return visual.NewPipeline(classifier, coder, r)
}

// ProvideSearcher 检索接口绑定
func ProvideSearcher(client *search.Client) appchat.Searcher {
	return client
}

// ProvideEmailSender 邮件通道绑定（当前为停用实现）
func ProvideEmailSender(sender *email.DisabledSender) appchat.EmailSender {
	return sender
}

// ProvideServiceConfig 回合编排配置
func ProvideServiceConfig(cfg *config.PlannerConfig) appchat.ServiceConfig {
	return appchat.ServiceConfig{HistoryLimit: cfg.HistoryLimit}
}
