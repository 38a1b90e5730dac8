package websocket

import (
	"github.com/google/wire"

	appchat "github.com/watira/backend/internal/application/chat"
)

// ProviderSet WebSocket ProviderSet
var ProviderSet = wire.NewSet(
	NewHub,
	NewPusher,
	wire.Bind(new(appchat.Pusher), new(*Pusher)),
)
