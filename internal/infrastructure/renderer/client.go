// Package renderer 提供可视化代码渲染服务客户端
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/log"
)

// minImageSize 小于该字节数的渲染结果视为空图
const minImageSize = 100

// Client 渲染服务 HTTP 客户端
// 渲染服务在隔离环境中执行可视化代码并返回 PNG
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建渲染客户端
func NewClient(cfg *config.RendererConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.NewModuleLogger("renderer", "client"),
	}
}

// renderRequest 渲染请求
type renderRequest struct {
	Code string `json:"code"`
	Kind string `json:"kind"`
}

// Render 提交代码渲染，返回 PNG 字节
func (c *Client) Render(ctx context.Context, code, kind string) ([]byte, error) {
	reqBody := renderRequest{
		Code: code,
		Kind: kind,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/render", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending render request", "kind", kind, "code_len", len(code))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned status %d: %s", resp.StatusCode, body)
	}

	if len(body) < minImageSize {
		return nil, fmt.Errorf("generated image was empty")
	}

	c.logger.Debug("Render completed", "kind", kind, "bytes", len(body))
	return body, nil
}
