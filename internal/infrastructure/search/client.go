// Package search 提供外部检索服务客户端
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/log"
)

// cacheLimit 进程内查询缓存的最大条目数
const cacheLimit = 128

// Client 检索服务 HTTP 客户端
type Client struct {
	endpoint   string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string][]chat.Document
}

// NewClient 创建检索客户端
func NewClient(cfg *config.SearchConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.NewModuleLogger("search", "client"),
		cache:  make(map[string][]chat.Document),
	}
}

// searchRequest 检索请求
type searchRequest struct {
	Query    string `json:"query"`
	PageSize int    `json:"page_size"`
}

// searchResult 检索结果条目
type searchResult struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Search 按查询检索文档
// 检索失败降级为空结果，不中断上层回答流程
func (c *Client) Search(ctx context.Context, query string) []chat.Document {
	if c.endpoint == "" || query == "" {
		return nil
	}

	c.mu.Lock()
	if docs, ok := c.cache[query]; ok {
		c.mu.Unlock()
		c.logger.Debug("Search cache hit", "query", query)
		return docs
	}
	c.mu.Unlock()

	docs, err := c.fetch(ctx, query)
	if err != nil {
		c.logger.Warn("Search request failed, returning empty results",
			"query", query,
			"error", err,
		)
		return nil
	}

	c.mu.Lock()
	// 缓存满时整体丢弃，避免无限增长
	if len(c.cache) >= cacheLimit {
		c.cache = make(map[string][]chat.Document)
	}
	c.cache[query] = docs
	c.mu.Unlock()

	return docs
}

// fetch 发起检索请求
func (c *Client) fetch(ctx context.Context, query string) ([]chat.Document, error) {
	reqBody := searchRequest{
		Query:    query,
		PageSize: c.pageSize,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	docs := make([]chat.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, chat.Document{
			Source:  r.Source,
			Content: r.Content,
		})
	}

	c.logger.Debug("Search completed", "query", query, "results", len(docs))
	return docs, nil
}
