package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/watira/backend/internal/domain/chat"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TiktokenEstimator 使用 tiktoken 精确估算 Token 数量
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// tiktokenInstance 单例实例
var (
	tiktokenInstance *TiktokenEstimator
	tiktokenOnce     sync.Once
	tiktokenErr      error
)

// GetTiktokenEstimator 获取 TiktokenEstimator 单例
// 使用单例模式避免重复加载编码文件
func GetTiktokenEstimator() (*TiktokenEstimator, error) {
	tiktokenOnce.Do(func() {
		// 使用 cl100k_base 编码（GPT-4、Claude 等模型兼容）
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tiktokenErr = err
			return
		}
		tiktokenInstance = &TiktokenEstimator{
			encoding: enc,
		}
	})

	if tiktokenErr != nil {
		return nil, tiktokenErr
	}
	return tiktokenInstance, nil
}

// CountTokens 计算文本的 Token 数量
func (e *TiktokenEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// trimHistory 从最旧的消息开始裁剪，使历史总量不超过 Token 预算
// 预算为 0 或编码器不可用时不裁剪
func trimHistory(history []*chat.Message, budget int) []*chat.Message {
	if budget <= 0 || len(history) == 0 {
		return history
	}

	estimator, err := GetTiktokenEstimator()
	if err != nil {
		return history
	}

	total := 0
	counts := make([]int, len(history))
	for i, msg := range history {
		content := msg.Content
		if chat.IsDataURI(content) {
			content = historyPlaceholder
		}
		counts[i] = estimator.CountTokens(content)
		total += counts[i]
	}

	start := 0
	for start < len(history) && total > budget {
		total -= counts[start]
		start++
	}

	return history[start:]
}
