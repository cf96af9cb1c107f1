package sessionbuffer

import "github.com/google/wire"

// ProviderSet 会话缓冲 ProviderSet
var ProviderSet = wire.NewSet(
	NewStore,
)
