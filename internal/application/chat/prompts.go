package chat

import (
	"fmt"
	"strings"

	"github.com/watira/backend/internal/domain/chat"
)

// historyLines 将会话历史拼为 prompt 文本
func historyLines(history []*chat.Message) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		content := msg.Content
		if chat.IsDataURI(content) {
			content = "[image]"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, content))
	}
	return strings.Join(lines, "\n")
}

// buildClassifyIntentPrompt 意图分类 prompt
func buildClassifyIntentPrompt(query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	histText := historyLines(history)
	if histText == "" {
		histText = "No history"
	}

	lastKind := string(cctx.LastResponseKind)
	if lastKind == "" {
		lastKind = "None"
	}

	return fmt.Sprintf(`Classify this query into ONE of:
- 'chit_chat'
- 'text_answer'
- 'visual_report'
- 'email'
- 'visual_report_and_email'
- 'email_text'
- 'email_image'

**History:**
%s

**Last Output Type:** %s

**Query:** "%s"

Classification:`, histText, lastKind, query)
}

// buildChitChatPrompt 闲聊回复 prompt
func buildChitChatPrompt(query string) string {
	return fmt.Sprintf("You are a friendly Kuwaiti assistant. Respond to this naturally in Kuwaiti dialect only, no translations or any english letters: '%s'", query)
}

// buildAnswerPrompt 基于检索文档的回答 prompt
func buildAnswerPrompt(query string, docs []chat.Document, history []*chat.Message) string {
	contextText := flattenDocuments(docs)
	if contextText == "" {
		contextText = "No context found"
	}

	histText := historyLines(history)
	if histText == "" {
		histText = "No history"
	}

	return fmt.Sprintf(`You are a professional Kuwaiti assistant. Provide a comprehensive answer using the documents.

**History:**
%s

**Documents:**
%s

**Query:** %s

**Instructions:**
1. Answer ONLY based on the user’s query and the documents provided.
2. If the user specifies a **year** (e.g., 2018), return data for that year ONLY.
3. If no year is mentioned, provide a **summary of all available years**.
4. Answer in **Kuwaiti dialect**, naturally and respectfully. Avoid English letters.
5. Use clear formatting: headings, bullets, and proper grouping.
6. Cite the source at the end of each section clearly (e.g., الكتاب السنوي لديوان المحاسبة 2018).
7. If you couldn’t find an answer, say **"ما لقيت معلومات بهالخصوص"** instead of apologizing or making up anything.
8. Do NOT mention that the information is limited or unavailable unless it truly is.`, histText, contextText, query)
}

// flattenDocuments 将检索文档拼为 prompt 上下文
func flattenDocuments(docs []chat.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("--- From: %s ---\n%s", d.Source, d.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// formatTextResponse 清理模型输出：去掉星号并压缩空行
func formatTextResponse(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "*", ""), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n\n")
}
