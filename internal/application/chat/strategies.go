package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/domain/events"
)

// 策略输出中的用户可见固定文案
const (
	msgNoRecentImage     = "عفواً، لا توجد صورة حديثة لإرسالها بالبريد."
	msgImageDataInvalid  = "عفواً، تعذر الوصول إلى بيانات الصورة لإرسالها."
	msgNoPriorValidImage = "عفواً، لم أجد صورة سابقة صالحة لإرسالها بالبريد."
	msgNoRecentText      = "عفواً، لا توجد إجابة نصية حديثة لإرسالها بالبريد."
	msgNothingToSend     = "عفواً، لم أتمكن من تحديد ما يجب إرساله بالبريد."
	fallbackResponse     = "Sorry, I couldn't process your request for some reason."
)

// 进度文案
const (
	statusTyping         = "Typing..."
	statusSearching      = "Searching documents..."
	statusDrafting       = "Drafting response..."
	statusCheckingCache  = "Checking cache for visual..."
	statusGenerating     = "Generating visualization..."
	statusAnalyzing      = "analyzing..."
	statusGeneratingBoth = "Generating visual ..."
	statusPreparingEmail = "Visual report generated, preparing to send email..."
)

// handleChitChat 闲聊策略
func (s *Service) handleChitChat(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	s.queue.Enqueue(events.NewStatus(cid, statusTyping))

	reply, err := s.generator.Generate(ctx, buildChitChatPrompt(query), history)
	if err != nil {
		s.logger.Error("Chit-chat generation failed", "error", err)
		reply = "أهلاً وسهلاً!"
	}

	s.queue.Enqueue(events.NewText(cid, reply))

	cctx.LastQuery = query
	cctx.LastResponseKind = chat.ResponseKindText
	cctx.LastResponseContent = reply
	return reply
}

// handleTextAnswer 检索问答策略
func (s *Service) handleTextAnswer(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	s.queue.Enqueue(events.NewStatus(cid, statusSearching))
	docs := s.searcher.Search(ctx, query)

	s.queue.Enqueue(events.NewStatus(cid, statusDrafting))
	answer, err := s.generator.Generate(ctx, buildAnswerPrompt(query, docs, history), history)
	if err != nil {
		s.logger.Error("Answer generation failed", "error", err)
		answer = "عفواً، واجهتني مشكلة أثناء إعداد الجواب."
	}

	s.queue.Enqueue(events.NewText(cid, answer))

	final := formatTextResponse(answer)
	cctx.LastQuery = query
	cctx.LastResponseKind = chat.ResponseKindText
	cctx.LastResponseContent = final
	cctx.LastRawData = docs
	cctx.LastArtifactIDs = nil
	return final
}

// handleVisualReport 可视化报表策略
// 短指代查询复用上一轮查询；先查制品缓存，未命中才走生成流水线
func (s *Service) handleVisualReport(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	rewritten := s.rewriteVisualQuery(query, cctx)

	s.queue.Enqueue(events.NewStatus(cid, statusCheckingCache))
	cached, err := s.artifacts.Find(cid, rewritten)
	if err != nil {
		s.logger.Error("Artifact cache lookup failed", "error", err)
	}

	var final string
	if cached != nil {
		final = cached.Content
		s.queue.Enqueue(events.NewImage(cid, final))
		cctx.LastArtifactIDs = []int64{cached.ID}
		s.logger.Info("Visual served from cache", "conversation_id", cid, "artifact_id", cached.ID)
	} else {
		s.queue.Enqueue(events.NewStatus(cid, statusGenerating))
		docs := s.searcher.Search(ctx, rewritten)

		image, genErr := s.pipeline.Run(ctx, rewritten, docs, history)
		if genErr != nil {
			final = fmt.Sprintf("Sorry, I couldn't create the visualization. Error: %v", genErr)
			s.queue.Enqueue(events.NewText(cid, final))
			cctx.LastArtifactIDs = nil
		} else {
			final = encodeImage(image)
			// 落库失败时不引用悬空的制品 ID，后续指代回答 "没有可发送的图"
			artifactID, saveErr := s.artifacts.Save(cid, rewritten, chat.ArtifactKindImage, final)
			if saveErr != nil {
				s.logger.Error("Failed to save artifact", "error", saveErr)
				cctx.LastArtifactIDs = nil
			} else {
				cctx.LastArtifactIDs = []int64{artifactID}
			}
			s.queue.Enqueue(events.NewImage(cid, final))
		}
		cctx.LastRawData = docs
	}

	cctx.LastQuery = rewritten
	cctx.LastResponseKind = chat.ResponseKindImage
	cctx.LastResponseContent = final
	return final
}

// handleEmailImage 发送最近图像策略
func (s *Service) handleEmailImage(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	var final string

	if len(cctx.LastArtifactIDs) == 0 {
		final = msgNoRecentImage
	} else {
		image, err := s.loadArtifactImage(cctx.LastArtifactIDs[0])
		switch {
		case errors.Is(err, chat.ErrNoPriorContext):
			final = msgImageDataInvalid
		case err != nil:
			final = fmt.Sprintf("حدث خطأ أثناء تجهيز أو إرسال الصورة عبر الإيميل: %v", err)
		default:
			result, sendErr := s.emailer.Send(ctx, "الصورة المطلوبة من JPFA Assistant AI", "إرسال الصورة المطلوبة", image)
			if sendErr != nil {
				final = fmt.Sprintf("حدث خطأ أثناء تجهيز أو إرسال الصورة عبر الإيميل: %v", sendErr)
			} else {
				final = result
			}
		}
	}

	s.queue.Enqueue(events.NewText(cid, final))
	return final
}

// handleEmailText 发送最近文本策略
func (s *Service) handleEmailText(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	var final string

	if cctx.LastResponseKind == chat.ResponseKindText && cctx.LastResponseContent != "" {
		result, err := s.emailer.Send(ctx, "محتوى نصي من محادثتك مع JPFA Assistant AI", query, nil)
		if err != nil {
			final = fmt.Sprintf("حدث خطأ أثناء إرسال الإيميل: %v", err)
		} else {
			final = result
		}
	} else {
		final = msgNoRecentText
	}

	s.queue.Enqueue(events.NewText(cid, final))
	return final
}

// handleEmail 通用邮件策略
// 依次尝试：最近图像 -> 最近文本 -> 按查询生成通用邮件
func (s *Service) handleEmail(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	var final string
	sent := false

	if cctx.LastResponseKind == chat.ResponseKindImage && len(cctx.LastArtifactIDs) > 0 {
		image, err := s.loadArtifactImage(cctx.LastArtifactIDs[0])
		switch {
		case errors.Is(err, chat.ErrNoPriorContext):
			final = msgNoPriorValidImage
			s.queue.Enqueue(events.NewText(cid, final))
		case err != nil:
			final = fmt.Sprintf("حدث خطأ في تجهيز وإرسال الصورة عبر الإيميل: %v", err)
			s.queue.Enqueue(events.NewText(cid, final))
		default:
			result, sendErr := s.emailer.Send(ctx, "مرفق من محادثتك مع JPFA Assistant AI", query, image)
			if sendErr != nil {
				final = fmt.Sprintf("حدث خطأ في تجهيز وإرسال الصورة عبر الإيميل: %v", sendErr)
				s.queue.Enqueue(events.NewText(cid, final))
			} else {
				final = result
				s.queue.Enqueue(events.NewText(cid, final))
				sent = true
			}
		}
	}

	if !sent {
		if cctx.LastResponseKind == chat.ResponseKindText && cctx.LastResponseContent != "" {
			result, err := s.emailer.Send(ctx, "تفاصيل من محادثتك مع JPFA Assistant AI", query, nil)
			if err != nil {
				final = fmt.Sprintf("حدث خطأ أثناء إرسال الإيميل: %v", err)
			} else {
				final = result
			}
			s.queue.Enqueue(events.NewText(cid, final))
			sent = true
		} else if final == "" {
			// 无明确可引用的上下文，按查询内容发送通用邮件
			result, err := s.emailer.Send(ctx, fmt.Sprintf("استفسار بخصوص: %s", query), query, nil)
			if err != nil {
				final = fmt.Sprintf("حدث خطأ أثناء إرسال الإيميل: %v", err)
			} else {
				final = result
			}
			s.queue.Enqueue(events.NewText(cid, final))
			sent = true
		}
	}

	if !sent && final == "" {
		final = msgNothingToSend
		s.queue.Enqueue(events.NewText(cid, final))
	}

	return final
}

// handleVisualAndEmail 生成报表并发送邮件的组合策略
func (s *Service) handleVisualAndEmail(ctx context.Context, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	s.queue.Enqueue(events.NewStatus(cid, statusAnalyzing))
	docs := s.searcher.Search(ctx, query)

	s.queue.Enqueue(events.NewStatus(cid, statusGeneratingBoth))
	image, err := s.pipeline.Run(ctx, query, docs, history)
	if err != nil {
		final := fmt.Sprintf("عفواً، فشلت في توليد الصورة المطلوبة لإرسالها بالبريد: %v", err)
		s.queue.Enqueue(events.NewText(cid, final))
		cctx.LastResponseKind = chat.ResponseKindText
		cctx.LastResponseContent = final
		cctx.LastArtifactIDs = nil
		return final
	}

	dataURI := encodeImage(image)
	artifactID, saveErr := s.artifacts.Save(cid, query, chat.ArtifactKindImage, dataURI)
	if saveErr != nil {
		s.logger.Error("Failed to save artifact", "error", saveErr)
		cctx.LastArtifactIDs = nil
	} else {
		cctx.LastArtifactIDs = []int64{artifactID}
	}
	cctx.LastResponseKind = chat.ResponseKindImage
	cctx.LastResponseContent = dataURI
	cctx.LastQuery = query

	s.queue.Enqueue(events.NewImage(cid, dataURI))
	s.queue.Enqueue(events.NewStatus(cid, statusPreparingEmail))

	subject := fmt.Sprintf("التقرير المطلوب: %s...", truncateRunes(query, 50))
	final, sendErr := s.emailer.Send(ctx, subject, query, image)
	if sendErr != nil {
		final = fmt.Sprintf("تم توليد الصورة، لكن فشل إرسالها بالبريد: %v", sendErr)
	}

	s.queue.Enqueue(events.NewText(cid, final))
	return final
}

// rewriteVisualQuery 短指代查询（"صممها"）复用上一轮查询
func (s *Service) rewriteVisualQuery(query string, cctx *chat.ConversationContext) string {
	lowerQuery := strings.ToLower(query)
	if containsAny(lowerQuery, s.planner.Rules().RedrawKeywords) && cctx.LastQuery != "" {
		s.logger.Info("Reusing last query for visual generation", "last_query", cctx.LastQuery)
		return cctx.LastQuery
	}
	return query
}

// loadArtifactImage 按制品 ID 加载并解码图像
// 制品缺失或内容非 data-URI 时返回 ErrNoPriorContext
func (s *Service) loadArtifactImage(artifactID int64) ([]byte, error) {
	artifact, err := s.artifacts.FindByID(artifactID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, chat.ErrNoPriorContext
	}

	_, payload, found := strings.Cut(artifact.Content, ",")
	if !found {
		return nil, chat.ErrNoPriorContext
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artifact image: %w", err)
	}
	return image, nil
}

// encodeImage 将 PNG 字节编码为 data-URI
func encodeImage(image []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
}

// truncateRunes 按字符数截断
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
