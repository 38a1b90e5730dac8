package chat

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/watira/backend/internal/application/visual"
	"github.com/watira/backend/internal/domain/chat"
	domainEvents "github.com/watira/backend/internal/domain/events"
	infraEvents "github.com/watira/backend/internal/infrastructure/events"
	"github.com/watira/backend/internal/infrastructure/storage"
)

// recordingGenerator 固定输出并记录调用的生成模型
type recordingGenerator struct {
	output string
	calls  int
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt string, history []*chat.Message) (string, error) {
	g.calls++
	return g.output, nil
}

// recordingSearcher 固定输出的检索器
type recordingSearcher struct {
	docs  []chat.Document
	calls int
}

func (s *recordingSearcher) Search(ctx context.Context, query string) []chat.Document {
	s.calls++
	return s.docs
}

// recordingRenderer 固定输出的渲染器
type recordingRenderer struct {
	image []byte
	err   error
	calls int
}

func (r *recordingRenderer) Render(ctx context.Context, code, kind string) ([]byte, error) {
	r.calls++
	return r.image, r.err
}

// recordingEmailSender 记录发送参数的邮件通道
type recordingEmailSender struct {
	result   string
	subjects []string
	images   [][]byte
}

func (s *recordingEmailSender) Send(ctx context.Context, subject, body string, image []byte) (string, error) {
	s.subjects = append(s.subjects, subject)
	s.images = append(s.images, image)
	return s.result, nil
}

// recordingPusher 收集会话变更通知
type recordingPusher struct {
	notifications []*Notification
}

func (p *recordingPusher) Push(n *Notification) error {
	p.notifications = append(p.notifications, n)
	return nil
}

// failingSaveArtifacts 落库总是失败的制品仓储，查找委托给内嵌实现
type failingSaveArtifacts struct {
	chat.ArtifactRepository
}

func (f *failingSaveArtifacts) Save(conversationID int64, requestQuery, kind, content string) (int64, error) {
	return 0, errors.New("disk full")
}

// serviceHarness 测试用的服务组装
type serviceHarness struct {
	service    *Service
	queue      domainEvents.Queue
	classifier *stubClassifier
	chatGen    *recordingGenerator
	coder      *recordingGenerator
	renderer   *recordingRenderer
	emailer    *recordingEmailSender
	pusher     *recordingPusher
	convs      chat.ConversationRepository
	artifacts  chat.ArtifactRepository
	contexts   *ContextStore
}

func setupService(t *testing.T) *serviceHarness {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "watira_service_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	db, err := sql.Open("sqlite", filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	h := &serviceHarness{
		queue:      infraEvents.NewQueue(),
		classifier: &stubClassifier{output: "text_answer"},
		chatGen:    &recordingGenerator{output: "الميزانية 100 مليون"},
		coder:      &recordingGenerator{output: "```python\nplot()\n```"},
		renderer:   &recordingRenderer{image: []byte("PNGDATA")},
		emailer:    &recordingEmailSender{result: "ميزة الإيميل معطّلة حالياً."},
		pusher:     &recordingPusher{},
		convs:      storage.NewConversationRepository(db),
		artifacts:  storage.NewArtifactRepository(db),
		contexts:   NewContextStore(),
	}

	pipeline := visual.NewPipeline(h.classifier, h.coder, h.renderer)
	planner := NewPlanner(h.classifier)

	h.service = NewService(
		ServiceConfig{HistoryLimit: 20},
		h.convs,
		h.artifacts,
		h.contexts,
		planner,
		h.chatGen,
		&recordingSearcher{docs: []chat.Document{{Source: "الكتاب السنوي", Content: "الميزانية 100"}}},
		pipeline,
		h.emailer,
		h.queue,
		h.pusher,
	)

	return h
}

// drainEvents 排空事件队列
func drainEvents(h *serviceHarness) []domainEvents.Event {
	var drained []domainEvents.Event
	for {
		ev, ok := h.queue.Dequeue(context.Background(), 20*time.Millisecond)
		if !ok {
			return drained
		}
		drained = append(drained, ev)
	}
}

func eventTypes(events []domainEvents.Event) []domainEvents.Type {
	types := make([]domainEvents.Type, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestService_EmptyQuery(t *testing.T) {
	h := setupService(t)

	_, err := h.service.SubmitTurn(context.Background(), 0, "   ")
	assert.ErrorIs(t, err, chat.ErrEmptyQuery)
}

func TestService_TextAnswerTurn(t *testing.T) {
	h := setupService(t)
	h.chatGen.output = "**الميزانية**\n100 مليون"

	cid, err := h.service.SubmitTurn(context.Background(), 0, "شلون اقدر اطلع بيانات 2018")
	require.NoError(t, err)
	require.Greater(t, cid, int64(0))

	// 两条消息落库，且内容非空
	messages, err := h.convs.ListMessages(cid)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, chat.RoleUser, messages[0].Role)
	assert.Equal(t, "شلون اقدر اطلع بيانات 2018", messages[0].Content)
	assert.Equal(t, chat.RoleModel, messages[1].Role)
	assert.Equal(t, "الميزانية\n\n100 مليون", messages[1].Content, "模型输出应清理星号与空行")

	events := drainEvents(h)
	assert.Equal(t, []domainEvents.Type{
		domainEvents.TypeSessionCreated,
		domainEvents.TypeStatus,
		domainEvents.TypeStatus,
		domainEvents.TypeText,
	}, eventTypes(events))

	// 新会话标题来自首条查询
	conversations, err := h.convs.List()
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "شلون اقدر اطلع بيانات 2018", conversations[0].Title)

	// 会话创建通知
	require.Len(t, h.pusher.notifications, 1)
	assert.Equal(t, NotifyConversationCreated, h.pusher.notifications[0].Type)
}

func TestService_VisualReportTurn(t *testing.T) {
	h := setupService(t)

	cid, err := h.service.SubmitTurn(context.Background(), 0, "ارسم الميزانية بيانيا")
	require.NoError(t, err)

	events := drainEvents(h)
	types := eventTypes(events)
	assert.Contains(t, types, domainEvents.TypeImage)

	// 模型消息是 data-URI 图像
	messages, err := h.convs.ListMessages(cid)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, chat.IsDataURI(messages[1].Content))

	// 制品已入缓存
	artifact, err := h.artifacts.Find(cid, "ارسم الميزانية")
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.Equal(t, messages[1].Content, artifact.Content)

	// 软状态指向新制品
	lease := h.contexts.Checkout(cid)
	defer lease.Release()
	assert.Equal(t, chat.ResponseKindImage, lease.Context.LastResponseKind)
	assert.Equal(t, []int64{artifact.ID}, lease.Context.LastArtifactIDs)
}

func TestService_VisualReportCacheHit(t *testing.T) {
	h := setupService(t)

	cid, err := h.convs.Create("缓存会话")
	require.NoError(t, err)

	cachedID, err := h.artifacts.Save(cid, "ارسم الميزانية بيانيا", chat.ArtifactKindImage, "data:image/png;base64,Q0FDSEVE")
	require.NoError(t, err)

	_, err = h.service.SubmitTurn(context.Background(), cid, "ارسم الميزانية")
	require.NoError(t, err)

	// 缓存命中时不走生成流水线
	assert.Equal(t, 0, h.coder.calls)
	assert.Equal(t, 0, h.renderer.calls)

	events := drainEvents(h)
	var imageContent string
	for _, ev := range events {
		if ev.Type == domainEvents.TypeImage {
			imageContent = ev.Content
		}
	}
	assert.Equal(t, "data:image/png;base64,Q0FDSEVE", imageContent)

	// 命中的制品 ID 写入软状态，后续 "ارسلها" 能找到这张图
	lease := h.contexts.Checkout(cid)
	defer lease.Release()
	assert.Equal(t, []int64{cachedID}, lease.Context.LastArtifactIDs)
}

func TestService_VisualReportFailureEmitsSingleText(t *testing.T) {
	h := setupService(t)
	h.coder.output = "ما عندي كود"

	cid, err := h.service.SubmitTurn(context.Background(), 0, "ارسم جدول المصروفات")
	require.NoError(t, err)

	// 两次尝试均失败
	assert.Equal(t, 2, h.coder.calls)

	events := drainEvents(h)
	var textEvents, imageEvents int
	for _, ev := range events {
		switch ev.Type {
		case domainEvents.TypeText:
			textEvents++
			assert.Contains(t, ev.Content, "Sorry, I couldn't create the visualization")
		case domainEvents.TypeImage:
			imageEvents++
		}
	}
	assert.Equal(t, 1, textEvents, "失败回合只应有一条终态文本")
	assert.Equal(t, 0, imageEvents)

	// 失败后软状态不保留制品引用
	lease := h.contexts.Checkout(cid)
	defer lease.Release()
	assert.Empty(t, lease.Context.LastArtifactIDs)
}

func TestService_ImplicitEmailFollowUp(t *testing.T) {
	h := setupService(t)

	// 第一回合生成图像
	cid, err := h.service.SubmitTurn(context.Background(), 0, "ارسم الميزانية بيانيا")
	require.NoError(t, err)
	drainEvents(h)

	// 第二回合隐式指代："ارسلها" 发送刚生成的图
	_, err = h.service.SubmitTurn(context.Background(), cid, "ارسلها")
	require.NoError(t, err)

	require.Len(t, h.emailer.images, 1)
	assert.Equal(t, []byte("PNGDATA"), h.emailer.images[0], "应发送解码后的原始图像字节")
	assert.Equal(t, "الصورة المطلوبة من JPFA Assistant AI", h.emailer.subjects[0])

	// 回合结果是邮件通道返回的文本
	messages, err := h.convs.ListMessages(cid)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "ميزة الإيميل معطّلة حالياً.", messages[3].Content)
}

func TestService_EmailWithoutPriorContext(t *testing.T) {
	h := setupService(t)

	cid, err := h.service.SubmitTurn(context.Background(), 0, "ارسل ملخص الميزانية بالايميل")
	require.NoError(t, err)

	// 无历史上下文时按查询内容发送通用邮件
	require.Len(t, h.emailer.subjects, 1)
	assert.Equal(t, "استفسار بخصوص: ارسل ملخص الميزانية بالايميل", h.emailer.subjects[0])
	assert.Nil(t, h.emailer.images[0])

	messages, err := h.convs.ListMessages(cid)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "ميزة الإيميل معطّلة حالياً.", messages[1].Content)
}

func TestService_CombinedVisualAndEmailEventOrder(t *testing.T) {
	h := setupService(t)

	_, err := h.service.SubmitTurn(context.Background(), 0, "صمم جدول للمصروفات وارسلها بالايميل")
	require.NoError(t, err)

	events := drainEvents(h)
	types := eventTypes(events)

	// 图像先推送，邮件结果文本在后
	assert.Equal(t, []domainEvents.Type{
		domainEvents.TypeSessionCreated,
		domainEvents.TypeStatus,
		domainEvents.TypeStatus,
		domainEvents.TypeImage,
		domainEvents.TypeStatus,
		domainEvents.TypeText,
	}, types)

	// 邮件附带生成的图像
	require.Len(t, h.emailer.images, 1)
	assert.Equal(t, []byte("PNGDATA"), h.emailer.images[0])
}

func TestService_CombinedVisualAndEmailFailureEmitsSingleText(t *testing.T) {
	h := setupService(t)
	h.coder.output = "ما عندي كود"

	cid, err := h.service.SubmitTurn(context.Background(), 0, "صمم جدول للمصروفات وارسلها بالايميل")
	require.NoError(t, err)

	// 两次生成尝试均失败，邮件不发送
	assert.Equal(t, 2, h.coder.calls)
	assert.Empty(t, h.emailer.subjects)

	events := drainEvents(h)
	var textEvents, imageEvents int
	for _, ev := range events {
		switch ev.Type {
		case domainEvents.TypeText:
			textEvents++
			assert.Contains(t, ev.Content, "عفواً، فشلت في توليد الصورة المطلوبة لإرسالها بالبريد")
		case domainEvents.TypeImage:
			imageEvents++
		}
	}
	assert.Equal(t, 1, textEvents, "失败回合只应有一条终态文本")
	assert.Equal(t, 0, imageEvents)

	// 失败后软状态回到文本输出，不保留制品引用
	lease := h.contexts.Checkout(cid)
	defer lease.Release()
	assert.Equal(t, chat.ResponseKindText, lease.Context.LastResponseKind)
	assert.Empty(t, lease.Context.LastArtifactIDs)
}

func TestService_VisualArtifactSaveFailureDropsReference(t *testing.T) {
	h := setupService(t)
	h.service.artifacts = &failingSaveArtifacts{ArtifactRepository: h.artifacts}

	cid, err := h.service.SubmitTurn(context.Background(), 0, "ارسم الميزانية بيانيا")
	require.NoError(t, err)
	drainEvents(h)

	// 图像已生成，但制品未落库，软状态不得引用悬空 ID
	lease := h.contexts.Checkout(cid)
	assert.Equal(t, chat.ResponseKindImage, lease.Context.LastResponseKind)
	assert.Empty(t, lease.Context.LastArtifactIDs)
	lease.Release()

	// 后续指代如实回答没有可发送的图
	_, err = h.service.SubmitTurn(context.Background(), cid, "ارسلها")
	require.NoError(t, err)

	assert.Empty(t, h.emailer.subjects)

	messages, err := h.convs.ListMessages(cid)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "عفواً، لا توجد صورة حديثة لإرسالها بالبريد.", messages[3].Content)
}

func TestService_EmailWithDanglingImageReference(t *testing.T) {
	h := setupService(t)

	cid, err := h.convs.Create("محادثة قديمة")
	require.NoError(t, err)

	// 软状态引用一个已不存在的制品
	lease := h.contexts.Checkout(cid)
	lease.Context.LastResponseKind = chat.ResponseKindImage
	lease.Context.LastArtifactIDs = []int64{99999}
	lease.Commit()

	_, err = h.service.SubmitTurn(context.Background(), cid, "ارسل التقرير بالايميل")
	require.NoError(t, err)

	assert.Empty(t, h.emailer.subjects)

	events := drainEvents(h)
	var textEvents int
	for _, ev := range events {
		if ev.Type == domainEvents.TypeText {
			textEvents++
			assert.Equal(t, "عفواً، لم أجد صورة سابقة صالحة لإرسالها بالبريد.", ev.Content)
		}
	}
	assert.Equal(t, 1, textEvents, "引用失效时也应推送一条终态文本")

	messages, err := h.convs.ListMessages(cid)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "عفواً، لم أجد صورة سابقة صالحة لإرسالها بالبريد.", messages[1].Content)
}

func TestService_DeleteConversationClearsState(t *testing.T) {
	h := setupService(t)

	cid, err := h.service.SubmitTurn(context.Background(), 0, "ارسم الميزانية بيانيا")
	require.NoError(t, err)
	drainEvents(h)

	require.NoError(t, h.service.DeleteConversation(cid))

	// 软状态已清空
	lease := h.contexts.Checkout(cid)
	defer lease.Release()
	assert.Empty(t, lease.Context.LastArtifactIDs)
	assert.Equal(t, chat.ResponseKindNone, lease.Context.LastResponseKind)

	// 删除通知已推送
	last := h.pusher.notifications[len(h.pusher.notifications)-1]
	assert.Equal(t, NotifyConversationDeleted, last.Type)
}

func TestService_RenameConversation(t *testing.T) {
	h := setupService(t)

	cid, err := h.service.SubmitTurn(context.Background(), 0, "شلونك")
	require.NoError(t, err)
	drainEvents(h)

	require.NoError(t, h.service.RenameConversation(cid, "عنوان جديد"))

	conversations, err := h.convs.List()
	require.NoError(t, err)
	assert.Equal(t, "عنوان جديد", conversations[0].Title)

	// 不存在的会话
	err = h.service.RenameConversation(99999, "x")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}
