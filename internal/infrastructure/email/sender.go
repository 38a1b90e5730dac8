// Package email 提供邮件发送实现
package email

import (
	"context"

	"log/slog"

	"github.com/watira/backend/internal/infrastructure/log"
)

// disabledNotice 邮件功能停用期间返回给用户的固定提示
const disabledNotice = "ميزة الإيميل معطّلة حالياً."

// DisabledSender 停用状态的邮件发送器
// 邮件通道下线期间保留意图路径，对所有请求返回固定提示
type DisabledSender struct {
	logger *slog.Logger
}

// NewDisabledSender 创建停用状态的邮件发送器
func NewDisabledSender() *DisabledSender {
	return &DisabledSender{
		logger: log.NewModuleLogger("email", "sender"),
	}
}

// Send 不发送邮件，返回停用提示
func (s *DisabledSender) Send(ctx context.Context, subject, body string, image []byte) (string, error) {
	s.logger.Info("Email requested while channel is disabled",
		"subject", subject,
		"has_image", len(image) > 0,
	)
	return disabledNotice, nil
}
