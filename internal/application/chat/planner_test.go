package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/watira/backend/internal/domain/chat"
)

// stubClassifier 固定输出的分类模型
type stubClassifier struct {
	output string
	err    error
	calls  int
}

func (s *stubClassifier) Generate(ctx context.Context, prompt string, history []*chat.Message) (string, error) {
	s.calls++
	return s.output, s.err
}

func emptyContext() *chat.ConversationContext {
	return &chat.ConversationContext{}
}

func imageContext() *chat.ConversationContext {
	return &chat.ConversationContext{
		LastQuery:        "ارسم الميزانية",
		LastResponseKind: chat.ResponseKindImage,
		LastArtifactIDs:  []int64{1},
	}
}

func textContext() *chat.ConversationContext {
	return &chat.ConversationContext{
		LastQuery:           "شنو الميزانية",
		LastResponseKind:    chat.ResponseKindText,
		LastResponseContent: "الميزانية 100 مليون",
	}
}

func TestPlanner_CombinedIntentHasHighestPriority(t *testing.T) {
	classifier := &stubClassifier{}
	p := NewPlanner(classifier)

	// 可视化和邮件关键词同时出现
	intent := p.Resolve(context.Background(), "صممها وارسلها بالايميل", nil, imageContext())
	assert.Equal(t, chat.IntentVisualReportAndEmail, intent)
	assert.Equal(t, 0, classifier.calls, "规则命中时不应调用分类模型")
}

func TestPlanner_ImplicitReferenceToImage(t *testing.T) {
	p := NewPlanner(&stubClassifier{})

	intent := p.Resolve(context.Background(), "ارسلها", nil, imageContext())
	assert.Equal(t, chat.IntentEmailImage, intent)
}

func TestPlanner_ImplicitReferenceToText(t *testing.T) {
	p := NewPlanner(&stubClassifier{})

	intent := p.Resolve(context.Background(), "ارسلها", nil, textContext())
	assert.Equal(t, chat.IntentEmailText, intent)
}

func TestPlanner_ImplicitReferenceWithoutContextFallsThrough(t *testing.T) {
	p := NewPlanner(&stubClassifier{})

	// 无上一轮输出可指代："ارسلها" 含邮件关键词，落到通用邮件意图
	intent := p.Resolve(context.Background(), "ارسلها", nil, emptyContext())
	assert.Equal(t, chat.IntentEmail, intent)
}

func TestPlanner_LongQueryIsNotImplicitReference(t *testing.T) {
	p := NewPlanner(&stubClassifier{})

	// 超过短查询词数上限的查询不按隐式指代处理
	intent := p.Resolve(context.Background(), "ارسلها مع كل التفاصيل المالية للسنوات الخمس الماضية", nil, imageContext())
	assert.Equal(t, chat.IntentEmail, intent)
}

func TestPlanner_ExplicitVisualKeywords(t *testing.T) {
	p := NewPlanner(&stubClassifier{})

	intent := p.Resolve(context.Background(), "ارسم جدول للمصروفات", nil, emptyContext())
	assert.Equal(t, chat.IntentVisualReport, intent)
}

func TestPlanner_ClassifierFallback(t *testing.T) {
	classifier := &stubClassifier{output: "chit_chat"}
	p := NewPlanner(classifier)

	// 无任何关键词命中，交给分类模型
	intent := p.Resolve(context.Background(), "شلونك اليوم", nil, emptyContext())
	assert.Equal(t, chat.IntentChitChat, intent)
	assert.Equal(t, 1, classifier.calls)
}

func TestPlanner_ClassifierFallbackDefaultsToTextAnswer(t *testing.T) {
	tests := []struct {
		name       string
		classifier *stubClassifier
	}{
		{"分类模型异常", &stubClassifier{err: errors.New("model unavailable")}},
		{"非法标签", &stubClassifier{output: "banana"}},
		{"空输出", &stubClassifier{output: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlanner(tt.classifier)
			intent := p.Resolve(context.Background(), "شلون اقدر اطلع بيانات 2018", nil, emptyContext())
			assert.Equal(t, chat.IntentTextAnswer, intent)
		})
	}
}

func TestPlanner_ClassifierLegacyLabel(t *testing.T) {
	classifier := &stubClassifier{output: "knowledge_question"}
	p := NewPlanner(classifier)

	intent := p.Resolve(context.Background(), "شنو ميزانية 2018", nil, emptyContext())
	assert.Equal(t, chat.IntentTextAnswer, intent)
}

func TestPlanner_ClassifierOutputIsNormalized(t *testing.T) {
	classifier := &stubClassifier{output: "  Visual_Report \n"}
	p := NewPlanner(classifier)

	intent := p.Resolve(context.Background(), "وش الوضع المالي", nil, emptyContext())
	assert.Equal(t, chat.IntentVisualReport, intent)
}

func TestPlanner_UpdateRules(t *testing.T) {
	p := NewPlanner(&stubClassifier{output: "text_answer"})

	rules := DefaultRuleTable()
	rules.Version = 2
	rules.VisualKeywords = []string{"خريطة"}
	p.UpdateRules(rules)

	// 新关键词生效
	intent := p.Resolve(context.Background(), "ابي خريطة للفروع", nil, emptyContext())
	assert.Equal(t, chat.IntentVisualReport, intent)

	// 旧关键词已被替换，落到分类模型
	intent = p.Resolve(context.Background(), "ارسم الفروع", nil, emptyContext())
	assert.Equal(t, chat.IntentTextAnswer, intent)
}
