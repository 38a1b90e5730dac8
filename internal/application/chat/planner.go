package chat

import (
	"context"
	"strings"
	"sync"

	"log/slog"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/infrastructure/log"
)

// Planner 意图解析器
// 先按关键词规则判定，规则不命中时交给分类模型兜底
type Planner struct {
	classifier Generator
	logger     *slog.Logger

	mu    sync.RWMutex
	rules *RuleTable
}

// NewPlanner 创建意图解析器，使用内置规则表
func NewPlanner(classifier Generator) *Planner {
	return &Planner{
		classifier: classifier,
		logger:     log.NewModuleLogger("chat", "planner"),
		rules:      DefaultRuleTable(),
	}
}

// UpdateRules 替换规则表（热加载入口）
func (p *Planner) UpdateRules(rules *RuleTable) {
	p.mu.Lock()
	p.rules = rules
	p.mu.Unlock()
	p.logger.Info("Planner rules updated", "version", rules.Version)
}

// Rules 返回当前规则表
func (p *Planner) Rules() *RuleTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rules
}

// Resolve 解析查询意图
// 优先级：组合意图 > 隐式指代 > 邮件 > 可视化 > 分类模型兜底
func (p *Planner) Resolve(ctx context.Context, query string, history []*chat.Message, cctx *chat.ConversationContext) chat.Intent {
	rules := p.Rules()
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	isVisual := containsAny(lowerQuery, rules.VisualKeywords)
	isEmail := containsAny(lowerQuery, rules.EmailKeywords)

	// 优先级 1：同一查询中同时出现可视化和邮件关键词
	if isVisual && isEmail {
		p.logger.Debug("Planner matched combined intent", "query", query)
		return chat.IntentVisualReportAndEmail
	}

	// 优先级 2：短查询中的隐式指代（"ارسلها" 这类后续指令）
	// 放在组合意图之后：组合请求已明确说明要做什么
	if containsAny(lowerQuery, rules.ImplicitRefKeywords) && len(strings.Fields(lowerQuery)) < rules.ShortQueryTokens {
		switch cctx.LastResponseKind {
		case chat.ResponseKindImage:
			p.logger.Debug("Planner matched implicit reference to image", "query", query)
			return chat.IntentEmailImage
		case chat.ResponseKindText:
			p.logger.Debug("Planner matched implicit reference to text", "query", query)
			return chat.IntentEmailText
		}
		// 无可指代的上下文时继续向下判定
	}

	// 优先级 3：单一显式意图
	if isEmail {
		p.logger.Debug("Planner matched email keywords", "query", query)
		return chat.IntentEmail
	}
	if isVisual {
		p.logger.Debug("Planner matched visual keywords", "query", query)
		return chat.IntentVisualReport
	}

	// 规则全部未命中，交给分类模型
	return p.classify(ctx, query, history, cctx)
}

// classify 分类模型兜底，任何异常回退为 text_answer
func (p *Planner) classify(ctx context.Context, query string, history []*chat.Message, cctx *chat.ConversationContext) chat.Intent {
	prompt := buildClassifyIntentPrompt(query, history, cctx)

	output, err := p.classifier.Generate(ctx, prompt, nil)
	if err != nil {
		p.logger.Warn("Intent classification failed, falling back to text_answer", "error", err)
		return chat.IntentTextAnswer
	}

	label := strings.ToLower(strings.TrimSpace(output))
	intent := chat.ParseIntent(label)
	if intent == chat.IntentUnknown {
		p.logger.Debug("Classifier returned unknown label, falling back to text_answer", "label", label)
		return chat.IntentTextAnswer
	}

	p.logger.Debug("Classifier decision", "label", label, "query", query)
	return intent
}

// containsAny 判断文本是否包含任一关键词
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
