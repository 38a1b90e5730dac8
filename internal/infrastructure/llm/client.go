// Package llm 提供 OpenAI 兼容 Chat API 的生成模型客户端
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/log"
)

// historyPlaceholder 历史中的图像消息以占位文本代替，不把 data-URI 塞进 prompt
const historyPlaceholder = "Here is the visual"

// Client LLM Chat 客户端
type Client struct {
	baseURL          string
	apiKey           string
	model            string
	maxHistoryTokens int
	httpClient       *http.Client
	logger           *slog.Logger
}

// ChatRequest Chat API 请求
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model,omitempty"`
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse Chat API 响应
type ChatResponse struct {
	ID      string `json:"id,omitempty"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// newClient 创建指定模型的客户端
func newClient(cfg *config.LLMConfig, model, component string) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Client{
		baseURL:          baseURL,
		apiKey:           cfg.APIKey,
		model:            model,
		maxHistoryTokens: cfg.MaxHistoryTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: log.NewModuleLogger("llm", component),
	}
}

// ChatClient 文本回答/闲聊模型客户端
type ChatClient struct{ *Client }

// NewChatClient 创建文本回答客户端
func NewChatClient(cfg *config.LLMConfig) *ChatClient {
	return &ChatClient{newClient(cfg, cfg.ChatModel, "chat_client")}
}

// PlannerClient 意图/可视化类型分类模型客户端
type PlannerClient struct{ *Client }

// NewPlannerClient 创建分类客户端
func NewPlannerClient(cfg *config.LLMConfig) *PlannerClient {
	return &PlannerClient{newClient(cfg, cfg.PlannerModel, "planner_client")}
}

// CodeClient 可视化代码生成模型客户端
type CodeClient struct{ *Client }

// NewCodeClient 创建代码生成客户端
func NewCodeClient(cfg *config.LLMConfig) *CodeClient {
	return &CodeClient{newClient(cfg, cfg.CodeModel, "code_client")}
}

// Generate 以 prompt 加会话历史调用模型，返回首个候选文本
func (c *Client) Generate(ctx context.Context, prompt string, history []*chat.Message) (string, error) {
	messages := buildMessages(prompt, trimHistory(history, c.maxHistoryTokens))

	reqBody := ChatRequest{
		Messages: messages,
		Model:    c.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	c.logger.Debug("Sending generation request",
		"url", url,
		"model", c.model,
		"history_len", len(history),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponseBody(resp)
		return "", fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("LLM API returned no choices")
	}

	c.logger.Debug("Generation successful",
		"model", c.model,
		"tokens", chatResp.Usage.TotalTokens,
	)

	return chatResp.Choices[0].Message.Content, nil
}

// buildMessages 将历史消息与当前 prompt 拼为 Chat 消息序列
func buildMessages(prompt string, history []*chat.Message) []Message {
	messages := make([]Message, 0, len(history)+1)

	for _, msg := range history {
		role := "user"
		if msg.Role == chat.RoleModel {
			role = "assistant"
		}

		content := msg.Content
		if chat.IsDataURI(content) {
			content = historyPlaceholder
		}

		messages = append(messages, Message{Role: role, Content: content})
	}

	messages = append(messages, Message{Role: "user", Content: prompt})
	return messages
}

// readResponseBody 读取响应体
func readResponseBody(resp *http.Response) (string, error) {
	if resp.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
