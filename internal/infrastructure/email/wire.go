package email

import "github.com/google/wire"

// ProviderSet 邮件发送 ProviderSet
var ProviderSet = wire.NewSet(
	NewDisabledSender,
)
